package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/slicerun/internal/lifecycle"
)

// ErrMissingRunFunc — не задана функция запуска run.
var ErrMissingRunFunc = errors.New("run func is required")

// RunFunc выполняет один run жизненного цикла.
// Обычно это (*lifecycle.Orchestrator).Run нового оркестратора.
type RunFunc func(ctx context.Context) (*lifecycle.Result, error)

// Config — конфигурация Scheduler.
type Config struct {
	// CronExpr — расписание: 5 полей или дескриптор (@hourly, @every 2h).
	CronExpr string

	// Timezone — IANA-имя часового пояса расписания (default: UTC).
	Timezone string

	// Run — запуск одного run.
	Run RunFunc

	Logger *slog.Logger
}

// Stats — счётчики запусков.
type Stats struct {
	Runs      int
	Succeeded int
	Failed    int
	Skipped   int
	LastRunAt time.Time
}

// Scheduler запускает run по cron-расписанию.
//
// Run-ы не перекрываются: если предыдущий ещё идёт, очередной запуск
// пропускается (cron.SkipIfStillRunning).
type Scheduler struct {
	expr   string
	loc    *time.Location
	run    RunFunc
	logger *slog.Logger

	mu      sync.Mutex
	stats   Stats
	running bool
}

// New создаёт Scheduler. Ошибка — некорректное выражение или часовой пояс.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Run == nil {
		return nil, ErrMissingRunFunc
	}
	if err := ValidateCronExpr(cfg.CronExpr); err != nil {
		return nil, err
	}
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		expr:   cfg.CronExpr,
		loc:    loc,
		run:    cfg.Run,
		logger: logger.With("cron", cfg.CronExpr),
	}, nil
}

// Run запускает расписание и блокируется до отмены ctx.
// После отмены дожидается завершения текущего run.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), s.skipIfRunning(cl)),
	)

	if _, err := c.AddFunc(s.expr, func() { s.runOnce(ctx) }); err != nil {
		return err
	}

	c.Start()
	if next, err := s.Next(time.Now()); err == nil {
		s.logger.Info("scheduler started", "next_run", next)
	}

	<-ctx.Done()

	s.logger.Info("scheduler stopping, waiting for active run")
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped", "runs", s.Stats().Runs)

	return nil
}

// Next возвращает время следующего запуска после from.
func (s *Scheduler) Next(from time.Time) (time.Time, error) {
	return NextRun(s.expr, s.loc, from)
}

// Stats возвращает копию счётчиков.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// skipIfRunning — cron.SkipIfStillRunning с подсчётом пропусков.
func (s *Scheduler) skipIfRunning(l cron.Logger) cron.JobWrapper {
	skip := cron.SkipIfStillRunning(l)
	return func(j cron.Job) cron.Job {
		wrapped := skip(j)
		return cron.FuncJob(func() {
			s.mu.Lock()
			busy := s.running
			if busy {
				s.stats.Skipped++
			}
			s.mu.Unlock()
			wrapped.Run()
		})
	}
}

// runOnce выполняет один run и обновляет счётчики.
func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.running = true
	s.stats.Runs++
	s.stats.LastRunAt = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("scheduled run starting")
	res, err := s.run(ctx)

	s.mu.Lock()
	if err != nil {
		s.stats.Failed++
	} else {
		s.stats.Succeeded++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled run failed", "error", err, "failed_step", failedStep(res))
		return
	}
	s.logger.Info("scheduled run succeeded",
		"run_id", res.Run.ID,
		"warnings", len(res.Warnings),
		"duration", res.Run.Duration(),
	)
}

func failedStep(res *lifecycle.Result) string {
	if res == nil {
		return ""
	}
	return res.FailedStep().String()
}

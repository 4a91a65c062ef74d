package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/slicerun/internal/lifecycle"
	"github.com/shaiso/slicerun/internal/mq"
	"github.com/shaiso/slicerun/internal/repo"
	"github.com/shaiso/slicerun/internal/slicer"
	"github.com/shaiso/slicerun/internal/telemetry"
)

// Runtime — инфраструктура одного запуска CLI: клиент Slicer, метрики,
// публикация событий и запись истории. Необязательные части включаются,
// только если для них задан адрес; недоступность RabbitMQ или Postgres
// не мешает run и только логируется.
type Runtime struct {
	opts   *Options
	logger *slog.Logger
	stdout io.Writer

	Client  *slicer.Client
	Metrics *telemetry.Metrics

	mqConn *mq.Connection
	events *mq.EventPublisher

	pool     *pgxpool.Pool
	recorder *repo.Recorder

	stopMetrics context.CancelFunc
}

// NewRuntime поднимает инфраструктуру согласно opts.
func NewRuntime(ctx context.Context, opts *Options, logger *slog.Logger, stdout io.Writer) *Runtime {
	rt := &Runtime{
		opts:   opts,
		logger: logger,
		stdout: stdout,
		Client: slicer.NewClient(slicer.Config{
			BaseURL:      opts.SlicerURL,
			PollInterval: opts.PollInterval,
			Logger:       logger,
		}),
		Metrics: telemetry.NewMetrics(),
	}

	if opts.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		rt.stopMetrics = cancel
		go func() {
			if err := rt.Metrics.Serve(metricsCtx, opts.MetricsAddr, logger); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	if opts.RabbitMQURL != "" {
		rt.connectMQ(ctx)
	}

	if opts.DatabaseURL != "" {
		rt.connectDB(ctx)
	}

	return rt
}

func (rt *Runtime) connectMQ(ctx context.Context) {
	conn, err := mq.NewConnection(rt.opts.RabbitMQURL, rt.logger)
	if err != nil {
		rt.logger.Warn("RabbitMQ not available, lifecycle events disabled", "error", err)
		return
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		rt.logger.Warn("failed to setup topology", "error", err)
	}

	rt.mqConn = conn
	rt.events = mq.NewEventPublisher(mq.NewPublisher(conn, rt.logger), rt.logger)
}

func (rt *Runtime) connectDB(ctx context.Context) {
	pool, err := repo.NewPool(ctx, rt.opts.DatabaseURL)
	if err != nil {
		rt.logger.Warn("database not available, run history disabled", "error", err)
		return
	}
	if err := repo.EnsureSchema(ctx, pool); err != nil {
		rt.logger.Warn("failed to ensure schema, run history disabled", "error", err)
		pool.Close()
		return
	}

	rt.pool = pool
	rt.recorder = repo.NewRecorder(repo.NewRunRepo(pool), rt.logger)
}

// Observers возвращает observers для run: вывод прогресса первым, затем
// метрики, события и история (если включены).
func (rt *Runtime) Observers() []lifecycle.Observer {
	obs := []lifecycle.Observer{
		NewProgress(rt.stdout, rt.Client.BaseURL()),
		rt.Metrics,
	}
	if rt.events != nil {
		obs = append(obs, rt.events)
	}
	if rt.recorder != nil {
		obs = append(obs, rt.recorder)
	}
	return obs
}

// Orchestrator создаёт оркестратор для одного run.
func (rt *Runtime) Orchestrator() *lifecycle.Orchestrator {
	cfg := rt.opts.LifecycleConfig(rt.Client, rt.Observers())
	cfg.Logger = rt.logger
	return lifecycle.New(cfg)
}

// Close освобождает соединения.
func (rt *Runtime) Close() {
	if rt.stopMetrics != nil {
		rt.stopMetrics()
	}
	if rt.mqConn != nil {
		if err := rt.mqConn.Close(); err != nil {
			rt.logger.Warn("failed to close RabbitMQ connection", "error", err)
		}
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}

package lifecycle

import (
	"context"
	"log/slog"

	"github.com/shaiso/slicerun/internal/domain"
)

// Observer получает события run. Реализации: вывод прогресса,
// Prometheus-метрики, публикация в RabbitMQ, запись истории в Postgres.
//
// Методы вызываются синхронно из goroutine оркестратора. Observer
// не может повлиять на исход run: собственные ошибки он обрабатывает сам.
type Observer interface {
	RunStarted(ctx context.Context, run *domain.Run)
	StepStarted(ctx context.Context, run *domain.Run, step domain.Step)
	StepFinished(ctx context.Context, run *domain.Run, rec domain.StepRecord, err error)
	RunFinished(ctx context.Context, run *domain.Run)
}

// BaseObserver — Observer, который ничего не делает.
// Встраивается в реализации, которым нужны не все события.
type BaseObserver struct{}

// RunStarted ничего не делает.
func (BaseObserver) RunStarted(context.Context, *domain.Run) {}

// StepStarted ничего не делает.
func (BaseObserver) StepStarted(context.Context, *domain.Run, domain.Step) {}

// StepFinished ничего не делает.
func (BaseObserver) StepFinished(context.Context, *domain.Run, domain.StepRecord, error) {}

// RunFinished ничего не делает.
func (BaseObserver) RunFinished(context.Context, *domain.Run) {}

// observers рассылает события всем Observer по порядку. Паника в
// одном Observer логируется и не мешает остальным и самому run.
type observers struct {
	list   []Observer
	logger *slog.Logger
}

func (obs observers) RunStarted(ctx context.Context, run *domain.Run) {
	for _, o := range obs.list {
		obs.notify("run_started", func() { o.RunStarted(ctx, run) })
	}
}

func (obs observers) StepStarted(ctx context.Context, run *domain.Run, step domain.Step) {
	for _, o := range obs.list {
		obs.notify("step_started", func() { o.StepStarted(ctx, run, step) })
	}
}

func (obs observers) StepFinished(ctx context.Context, run *domain.Run, rec domain.StepRecord, err error) {
	for _, o := range obs.list {
		obs.notify("step_finished", func() { o.StepFinished(ctx, run, rec, err) })
	}
}

func (obs observers) RunFinished(ctx context.Context, run *domain.Run) {
	for _, o := range obs.list {
		obs.notify("run_finished", func() { o.RunFinished(ctx, run) })
	}
}

func (obs observers) notify(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			obs.logger.Error("observer panicked", "event", event, "panic", r)
		}
	}()
	fn()
}

package repo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/lifecycle"
)

// recordTimeout ограничивает одну запись в БД.
const recordTimeout = 5 * time.Second

// RunStore — операции записи истории. Реализация: RunRepo.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	AddStep(ctx context.Context, runID uuid.UUID, seq int, rec domain.StepRecord) error
}

// Recorder — lifecycle.Observer, который пишет историю run в БД.
//
// Ошибки БД логируются и не влияют на run. Если run не удалось создать,
// шаги и итог этого run не пишутся.
type Recorder struct {
	lifecycle.BaseObserver

	store  RunStore
	logger *slog.Logger

	mu     sync.Mutex
	failed map[uuid.UUID]bool
}

// NewRecorder создаёт Recorder.
func NewRecorder(store RunStore, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		logger: logger,
		failed: make(map[uuid.UUID]bool),
	}
}

// RunStarted создаёт запись run.
func (r *Recorder) RunStarted(ctx context.Context, run *domain.Run) {
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.Create(ctx, run); err != nil {
		r.markFailed(run.ID, true)
		r.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
	}
}

// StepFinished записывает шаг. Порядковый номер — позиция записи в run.Steps.
func (r *Recorder) StepFinished(ctx context.Context, run *domain.Run, rec domain.StepRecord, _ error) {
	if r.isFailed(run.ID) {
		return
	}

	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.AddStep(ctx, run.ID, len(run.Steps), rec); err != nil {
		r.logger.Warn("failed to record step", "run_id", run.ID, "step", rec.Step, "error", err)
	}
}

// RunFinished сохраняет итог run.
func (r *Recorder) RunFinished(ctx context.Context, run *domain.Run) {
	if r.isFailed(run.ID) {
		r.markFailed(run.ID, false)
		return
	}

	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	if err := r.store.Update(ctx, run); err != nil {
		r.logger.Warn("failed to record run result", "run_id", run.ID, "error", err)
	}
}

// writeContext отвязывает запись от отмены run: итог должен попасть в БД
// и после SIGINT.
func (r *Recorder) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
}

func (r *Recorder) isFailed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed[id]
}

func (r *Recorder) markFailed(id uuid.UUID, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if failed {
		r.failed[id] = true
	} else {
		delete(r.failed, id)
	}
}

package mq

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/lifecycle"
)

// publishTimeout ограничивает одну публикацию, чтобы недоступный
// брокер не задерживал шаги lifecycle.
const publishTimeout = 5 * time.Second

// RunStartedPayload — payload события run.started.
type RunStartedPayload struct {
	RunID       uuid.UUID `json:"run_id"`
	SysTestName string    `json:"systest_name"`
	Owner       string    `json:"owner"`
	SpecPath    string    `json:"spec_path,omitempty"`
}

// StepFinishedPayload — payload события step.finished.
type StepFinishedPayload struct {
	RunID       uuid.UUID         `json:"run_id"`
	SysTestName string            `json:"systest_name"`
	Step        domain.Step       `json:"step"`
	Phase       domain.Phase      `json:"phase"`
	Status      domain.StepStatus `json:"status"`
	Error       string            `json:"error,omitempty"`
	Detail      map[string]string `json:"detail,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
}

// RunFinishedPayload — payload события run.finished.
type RunFinishedPayload struct {
	RunID       uuid.UUID            `json:"run_id"`
	SysTestName string               `json:"systest_name"`
	Status      domain.RunStatus     `json:"status"`
	State       domain.TopologyState `json:"state"`
	FailedStep  domain.Step          `json:"failed_step,omitempty"`
	Error       string               `json:"error,omitempty"`
	Warnings    int                  `json:"warnings"`
	DurationMs  int64                `json:"duration_ms"`
}

// MessagePublisher — то, что нужно EventPublisher. Реализация: Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey RoutingKey, msg *Message) error
}

// EventPublisher — lifecycle.Observer, который публикует события run.
// Ошибки публикации логируются и не влияют на run.
type EventPublisher struct {
	lifecycle.BaseObserver

	pub    MessagePublisher
	logger *slog.Logger
}

// NewEventPublisher создаёт EventPublisher.
func NewEventPublisher(pub MessagePublisher, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{pub: pub, logger: logger}
}

// RunStarted публикует run.started.
func (e *EventPublisher) RunStarted(ctx context.Context, run *domain.Run) {
	e.emit(ctx, RoutingKeyRunStarted, MessageTypeRunStarted, RunStartedPayload{
		RunID:       run.ID,
		SysTestName: run.SysTestName,
		Owner:       run.Owner,
		SpecPath:    run.SpecPath,
	})
}

// StepFinished публикует step.finished.
func (e *EventPublisher) StepFinished(ctx context.Context, run *domain.Run, rec domain.StepRecord, _ error) {
	e.emit(ctx, RoutingKeyStepFinished, MessageTypeStepFinished, StepFinishedPayload{
		RunID:       run.ID,
		SysTestName: run.SysTestName,
		Step:        rec.Step,
		Phase:       rec.Phase,
		Status:      rec.Status,
		Error:       rec.Error,
		Detail:      rec.Detail,
		DurationMs:  rec.Duration().Milliseconds(),
	})
}

// RunFinished публикует run.finished.
func (e *EventPublisher) RunFinished(ctx context.Context, run *domain.Run) {
	e.emit(ctx, RoutingKeyRunFinished, MessageTypeRunFinished, RunFinishedPayload{
		RunID:       run.ID,
		SysTestName: run.SysTestName,
		Status:      run.Status,
		State:       run.State,
		FailedStep:  run.FailedStep,
		Error:       run.Error,
		Warnings:    len(run.Warnings()),
		DurationMs:  run.Duration().Milliseconds(),
	})
}

func (e *EventPublisher) emit(ctx context.Context, key RoutingKey, msgType MessageType, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		e.logger.Error("failed to build event", "type", msgType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := e.pub.Publish(ctx, key, msg); err != nil {
		e.logger.Warn("failed to publish event", "type", msgType, "error", err)
	}
}

package lifecycle

import (
	"context"

	"github.com/shaiso/slicerun/internal/domain"
)

// cleanupAction — шаг best-effort суффикса.
type cleanupAction struct {
	step domain.Step
	run  stepFunc
}

// cleanupActions возвращает cleanup-шаги в порядке выполнения.
// Новый шаг добавляется сюда; независимость шагов обеспечивает attemptCleanup.
func (o *Orchestrator) cleanupActions() []cleanupAction {
	name := o.systemName
	return []cleanupAction{
		{
			step: domain.StepUndeploy,
			run: func(ctx context.Context) (map[string]string, error) {
				return nil, o.client.UndeployTestbed(ctx, name, o.undeployTimeout, o.wait)
			},
		},
		{
			step: domain.StepUnreserve,
			run: func(ctx context.Context) (map[string]string, error) {
				return nil, o.client.ReleaseResources(ctx, name)
			},
		},
		{
			step: domain.StepDelete,
			run: func(ctx context.Context) (map[string]string, error) {
				return nil, o.client.DeleteSysTest(ctx, name)
			},
		},
	}
}

// runCleanup выполняет все cleanup-шаги, каждый ровно один раз.
func (o *Orchestrator) runCleanup(ctx context.Context, res *Result) {
	o.runLogger(res.Run).Info("starting cleanup")

	for _, action := range o.cleanupActions() {
		o.attemptCleanup(ctx, res, action)
	}

	o.runLogger(res.Run).Info("cleanup completed",
		"state", res.Run.State,
		"warnings", len(res.Warnings),
	)
}

// attemptCleanup выполняет один cleanup-шаг. Ошибка (или паника)
// превращается в RecoverableError и не выходит за пределы метода.
func (o *Orchestrator) attemptCleanup(ctx context.Context, res *Result, action cleanupAction) {
	err := o.execute(ctx, res, action.step, action.run)
	if err == nil {
		return
	}

	res.Warnings = append(res.Warnings, &RecoverableError{Step: action.step, Err: err})
	o.runLogger(res.Run).Warn("cleanup step failed, continuing",
		"step", action.step,
		"error", err,
	)
}

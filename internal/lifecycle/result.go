package lifecycle

import "github.com/shaiso/slicerun/internal/domain"

// Outcome — итог run.
type Outcome string

const (
	// OutcomeSuccess — create, reserve и deploy прошли; cleanup выполнен
	// (возможно, с предупреждениями).
	OutcomeSuccess Outcome = "SUCCESS"

	// OutcomeSetupFailure — упал один из fail-fast шагов.
	OutcomeSetupFailure Outcome = "SETUP_FAILURE"
)

// Result — результат одного run.
type Result struct {
	// Run — локальная запись о run со всеми шагами.
	Run *domain.Run

	// Outcome — итог run.
	Outcome Outcome

	// Err — ошибка fail-fast шага. Nil при OutcomeSuccess.
	Err *FatalError

	// Warnings — ошибки cleanup-шагов в порядке выполнения.
	Warnings []*RecoverableError

	// Ответы Slicer на шагах setup (nil, если шаг не выполнялся или упал).
	Spec        *domain.TopologySpec
	SysTest     *domain.SysTest
	Reservation *domain.Reservation
	Deployment  *domain.Deployment
}

// ExitCode возвращает код завершения процесса: 0 при успехе
// (независимо от предупреждений cleanup), 1 при ошибке setup.
func (r *Result) ExitCode() int {
	if r.Outcome == OutcomeSuccess {
		return 0
	}
	return 1
}

// FailedStep возвращает шаг, на котором run прервался.
func (r *Result) FailedStep() domain.Step {
	if r.Err == nil {
		return ""
	}
	return r.Err.Step
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — одна попытка провести SysTest через весь жизненный цикл:
// create → reserve → deploy → undeploy → unreserve → delete.
//
// Run существует только локально: Slicer о нём ничего не знает.
// Используется для отчётности (stdout, метрики, события, история в БД).
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// SysTestName — имя SysTest, которое передаётся во все вызовы Slicer.
	SysTestName string `json:"systest_name"`

	// Owner — владелец SysTest.
	Owner string `json:"owner"`

	// SpecPath — путь к файлу описания топологии.
	SpecPath string `json:"spec_path,omitempty"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// State — последнее состояние SysTest, подтверждённое успешным вызовом.
	State TopologyState `json:"state"`

	// FailedStep — fail-fast шаг, на котором run прервался.
	// Пустой, если run не FAILED.
	FailedStep Step `json:"failed_step,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// Steps — записи о выполненных шагах в порядке выполнения.
	Steps []StepRecord `json:"steps,omitempty"`

	// StartedAt — время перехода в RUNNING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(sysTestName, owner, specPath string) *Run {
	return &Run{
		ID:          uuid.New(),
		SysTestName: sysTestName,
		Owner:       owner,
		SpecPath:    specPath,
		Status:      RunStatusPending,
		State:       TopologyStateUnknown,
		CreatedAt:   time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(step Step, err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FailedStep = step
	r.FinishedAt = &now
	r.Error = err
}

// Warnings возвращает cleanup-шаги, завершившиеся со статусом WARNING.
func (r *Run) Warnings() []StepRecord {
	var out []StepRecord
	for _, s := range r.Steps {
		if s.Status == StepStatusWarning {
			out = append(out, s)
		}
	}
	return out
}

// StepRecord — запись о выполнении одного шага.
type StepRecord struct {
	// Step — какой шаг выполнялся.
	Step Step `json:"step"`

	// Phase — setup (fail-fast) или cleanup (best-effort).
	Phase Phase `json:"phase"`

	// Status — результат шага.
	Status StepStatus `json:"status"`

	// Error — текст ошибки для FAILED и WARNING.
	Error string `json:"error,omitempty"`

	// Detail — данные для отчёта (например, deploy_status).
	Detail map[string]string `json:"detail,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность шага.
func (s *StepRecord) Duration() time.Duration {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

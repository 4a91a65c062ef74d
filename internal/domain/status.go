package domain

import "strings"

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — setup-фаза прошла успешно (cleanup мог завершиться с предупреждениями).
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — один из fail-fast шагов завершился ошибкой.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// StepStatus — статус отдельного шага run.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED  (setup-шаг, run прерывается)
//	        ↘ WARNING (cleanup-шаг, run продолжается)
type StepStatus string

const (
	// StepStatusRunning — шаг выполняется.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSucceeded — шаг успешно завершён.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — fail-fast шаг завершился ошибкой.
	StepStatusFailed StepStatus = "FAILED"

	// StepStatusWarning — best-effort шаг завершился ошибкой, которая не влияет на исход.
	StepStatusWarning StepStatus = "WARNING"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	return s != StepStatusRunning
}

// TopologyState — состояние SysTest на стороне Slicer,
// выведенное из последовательности успешных вызовов.
//
// Жизненный цикл:
//
//	UNKNOWN → CREATED → RESERVED → DEPLOYED → UNDEPLOYED → UNRESERVED → DELETED
//
// DELETED достижим из любого состояния.
type TopologyState string

const (
	TopologyStateUnknown    TopologyState = "UNKNOWN"
	TopologyStateCreated    TopologyState = "CREATED"
	TopologyStateReserved   TopologyState = "RESERVED"
	TopologyStateDeployed   TopologyState = "DEPLOYED"
	TopologyStateUndeployed TopologyState = "UNDEPLOYED"
	TopologyStateUnreserved TopologyState = "UNRESERVED"
	TopologyStateDeleted    TopologyState = "DELETED"
)

// String возвращает строковое представление TopologyState.
func (s TopologyState) String() string {
	return string(s)
}

// ParseTopologyState парсит строку в TopologyState.
// Неизвестное значение — TopologyStateUnknown.
func ParseTopologyState(s string) TopologyState {
	switch st := TopologyState(strings.ToUpper(strings.TrimSpace(s))); st {
	case TopologyStateCreated, TopologyStateReserved, TopologyStateDeployed,
		TopologyStateUndeployed, TopologyStateUnreserved, TopologyStateDeleted:
		return st
	default:
		return TopologyStateUnknown
	}
}

// DeployStatus — статус развёртывания testbed, как его сообщает Slicer.
type DeployStatus string

const (
	DeployStatusDeploying      DeployStatus = "DEPLOYING"
	DeployStatusDeployed       DeployStatus = "DEPLOYED"
	DeployStatusDeployFailed   DeployStatus = "DEPLOY_FAILED"
	DeployStatusUndeploying    DeployStatus = "UNDEPLOYING"
	DeployStatusUndeployed     DeployStatus = "UNDEPLOYED"
	DeployStatusUndeployFailed DeployStatus = "UNDEPLOY_FAILED"
)

// Completes сообщает, завершает ли статус переход к want: сам want или
// соответствующий *_FAILED. Терминальный статус обратного перехода
// (DEPLOYED при ожидании UNDEPLOYED и наоборот) переход не завершает.
func (s DeployStatus) Completes(want DeployStatus) bool {
	switch want {
	case DeployStatusDeployed:
		return s == DeployStatusDeployed || s == DeployStatusDeployFailed
	case DeployStatusUndeployed:
		return s == DeployStatusUndeployed || s == DeployStatusUndeployFailed
	default:
		return s == want
	}
}

// ParseDeployStatus парсит строку в DeployStatus.
// Регистр не важен: Slicer исторически отдаёт статусы в нижнем регистре.
func ParseDeployStatus(s string) DeployStatus {
	return DeployStatus(strings.ToUpper(strings.TrimSpace(s)))
}

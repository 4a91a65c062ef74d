package domain

// Step — шаг жизненного цикла топологии.
type Step string

const (
	StepLoad      Step = "load"
	StepCreate    Step = "create"
	StepReserve   Step = "reserve"
	StepDeploy    Step = "deploy"
	StepUndeploy  Step = "undeploy"
	StepUnreserve Step = "unreserve"
	StepDelete    Step = "delete"
)

// Phase — фаза, к которой относится шаг.
type Phase string

const (
	// PhaseSetup — fail-fast префикс: load, create, reserve, deploy.
	PhaseSetup Phase = "setup"

	// PhaseCleanup — best-effort суффикс: undeploy, unreserve, delete.
	PhaseCleanup Phase = "cleanup"
)

// Steps — все шаги в порядке выполнения.
var Steps = []Step{
	StepLoad,
	StepCreate,
	StepReserve,
	StepDeploy,
	StepUndeploy,
	StepUnreserve,
	StepDelete,
}

// Phase возвращает фазу шага.
func (s Step) Phase() Phase {
	switch s {
	case StepUndeploy, StepUnreserve, StepDelete:
		return PhaseCleanup
	default:
		return PhaseSetup
	}
}

// Target возвращает состояние SysTest после успешного выполнения шага.
// Для load — UNKNOWN: загрузка спецификации не трогает Slicer.
func (s Step) Target() TopologyState {
	switch s {
	case StepCreate:
		return TopologyStateCreated
	case StepReserve:
		return TopologyStateReserved
	case StepDeploy:
		return TopologyStateDeployed
	case StepUndeploy:
		return TopologyStateUndeployed
	case StepUnreserve:
		return TopologyStateUnreserved
	case StepDelete:
		return TopologyStateDeleted
	default:
		return TopologyStateUnknown
	}
}

// String возвращает строковое представление Step.
func (s Step) String() string {
	return string(s)
}

package domain

import "time"

// TopologyDefinition — определение топологии (секция topology_spec).
// Содержимое непрозрачно и передаётся в Slicer как есть.
type TopologyDefinition map[string]any

// DeploySpec — спецификация развёртывания testbed (секция deploy_spec).
// Содержимое непрозрачно и передаётся в Slicer как есть.
type DeploySpec map[string]any

// TopologySpec — загруженное описание топологии.
//
// После загрузки не изменяется. Принадлежит одному run.
type TopologySpec struct {
	// Path — откуда загружено описание.
	Path string `json:"path"`

	// Definition — секция topology_spec.
	Definition TopologyDefinition `json:"topology_spec"`

	// Deploy — секция deploy_spec.
	Deploy DeploySpec `json:"deploy_spec"`

	// Raw — весь документ целиком, включая неизвестные секции.
	Raw map[string]any `json:"-"`
}

// TopologyDefinition возвращает определение топологии для вызова create.
func (s *TopologySpec) TopologyDefinition() TopologyDefinition {
	return s.Definition
}

// DeploySpec возвращает спецификацию развёртывания для вызова deploy.
func (s *TopologySpec) DeploySpec() DeploySpec {
	return s.Deploy
}

// SysTest — экземпляр топологии на стороне Slicer.
type SysTest struct {
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	State     string    `json:"state,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Reservation — результат резервирования ресурсов под SysTest.
type Reservation struct {
	Name string `json:"name"`

	// Immediate — true, если ресурсы выделены сразу, а не по расписанию.
	Immediate bool `json:"immediate"`

	// DurationSec — длительность резервирования в секундах.
	DurationSec float64 `json:"duration_sec"`

	// State — состояние резервирования, как его сообщает Slicer.
	State string `json:"state,omitempty"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// Duration возвращает длительность резервирования.
func (r *Reservation) Duration() time.Duration {
	return time.Duration(r.DurationSec * float64(time.Second))
}

// Deployment — результат развёртывания testbed.
// DeployStatus используется только для отчёта.
type Deployment struct {
	Name         string       `json:"name"`
	DeployStatus DeployStatus `json:"deploy_status"`
	Message      string       `json:"message,omitempty"`
}

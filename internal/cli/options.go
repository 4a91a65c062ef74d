package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/lifecycle"
	"github.com/shaiso/slicerun/internal/slicer"
	"github.com/shaiso/slicerun/internal/topospec"
)

// Значения identity по умолчанию.
const (
	DefaultSystemName = "github_runner"
	DefaultOwner      = "github@apstra.com"
)

// Options — общие параметры команд. Заполняются из persistent flags;
// значения флагов по умолчанию берутся из окружения.
type Options struct {
	// Slicer
	SlicerURL    string
	PollInterval time.Duration

	// Identity
	SystemName string
	Owner      string

	// Spec
	SpecPath string

	// Lifecycle
	ReserveDuration time.Duration
	Scheduled       bool
	DeployTimeout   time.Duration
	UndeployTimeout time.Duration
	NoWait          bool

	// Infrastructure (пусто — выключено)
	DatabaseURL string
	RabbitMQURL string
	MetricsAddr string

	// Output
	JSON bool
}

// BindFlags регистрирует persistent flags на root-команде.
func (o *Options) BindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()

	f.StringVar(&o.SlicerURL, "slicer-url", envOr("SLICER_URL", slicer.DefaultURL), "Slicer API URL [$SLICER_URL]")
	f.DurationVar(&o.PollInterval, "poll-interval", 10*time.Second, "Deployment status poll interval")

	f.StringVar(&o.SystemName, "system", envOr("SLICER_SYSTEM", DefaultSystemName), "SysTest name [$SLICER_SYSTEM]")
	f.StringVar(&o.Owner, "owner", envOr("SLICER_OWNER", DefaultOwner), "SysTest owner [$SLICER_OWNER]")

	f.StringVar(&o.SpecPath, "spec", "", "Topology spec file (default: topology_spec.yaml next to the binary)")

	f.DurationVar(&o.ReserveDuration, "reserve-duration", lifecycle.DefaultReserveDuration, "Reservation duration")
	f.BoolVar(&o.Scheduled, "scheduled-reservation", false, "Request a scheduled instead of immediate reservation")
	f.DurationVar(&o.DeployTimeout, "deploy-timeout", lifecycle.DefaultDeployTimeout, "Deploy timeout")
	f.DurationVar(&o.UndeployTimeout, "undeploy-timeout", lifecycle.DefaultUndeployTimeout, "Undeploy timeout")
	f.BoolVar(&o.NoWait, "no-wait", false, "Do not wait for deploy/undeploy to reach a terminal status")

	f.StringVar(&o.DatabaseURL, "db-url", os.Getenv("DB_URL"), "Postgres DSN for run history [$DB_URL]")
	f.StringVar(&o.RabbitMQURL, "rabbitmq-url", os.Getenv("RABBITMQ_URL"), "RabbitMQ URL for lifecycle events [$RABBITMQ_URL]")
	f.StringVar(&o.MetricsAddr, "metrics-addr", os.Getenv("METRICS_ADDR"), "Address to serve /metrics and /healthz [$METRICS_ADDR]")

	f.BoolVar(&o.JSON, "json", false, "Output in JSON format (validate, history)")
}

// ResolvedSpecPath возвращает путь к описанию топологии.
func (o *Options) ResolvedSpecPath() string {
	if o.SpecPath != "" {
		return o.SpecPath
	}
	return topospec.DefaultPath()
}

// LifecycleConfig собирает конфигурацию оркестратора.
func (o *Options) LifecycleConfig(client lifecycle.Client, observers []lifecycle.Observer) lifecycle.Config {
	return lifecycle.Config{
		SystemName:      o.SystemName,
		Owner:           o.Owner,
		SpecPath:        o.ResolvedSpecPath(),
		ReserveDuration: o.ReserveDuration,
		Scheduled:       o.Scheduled,
		DeployTimeout:   o.DeployTimeout,
		UndeployTimeout: o.UndeployTimeout,
		NoWait:          o.NoWait,
		Client:          client,
		Loader:          topospec.Loader{},
		Observers:       observers,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

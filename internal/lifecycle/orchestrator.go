package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/telemetry"
)

// Default configuration values.
const (
	DefaultReserveDuration = 10000 * time.Second
	DefaultDeployTimeout   = 1200 * time.Second
	DefaultUndeployTimeout = 600 * time.Second
)

// Client — операции Slicer, которые использует оркестратор.
// Реализация: slicer.Client.
type Client interface {
	CreateSysTest(ctx context.Context, name string, def domain.TopologyDefinition, owner string) (*domain.SysTest, error)
	ReserveResources(ctx context.Context, name, owner string, duration time.Duration, immediate bool) (*domain.Reservation, error)
	DeployTestbed(ctx context.Context, name string, spec domain.DeploySpec, timeout time.Duration, wait bool) (*domain.Deployment, error)
	UndeployTestbed(ctx context.Context, name string, timeout time.Duration, wait bool) error
	ReleaseResources(ctx context.Context, name string) error
	DeleteSysTest(ctx context.Context, name string) error
}

// SpecLoader загружает описание топологии. Реализация: topospec.Loader.
type SpecLoader interface {
	Load(path string) (*domain.TopologySpec, error)
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Identity
	SystemName string // имя SysTest во всех вызовах Slicer
	Owner      string // владелец SysTest

	// SpecPath — путь к описанию топологии.
	SpecPath string

	// Reservation
	ReserveDuration time.Duration // длительность резервирования (default: 10000s)
	Scheduled       bool          // true — резервировать по расписанию, а не сразу

	// Deploy / undeploy
	DeployTimeout   time.Duration // default: 1200s
	UndeployTimeout time.Duration // default: 600s
	NoWait          bool          // не ждать терминального статуса deploy/undeploy

	// Collaborators
	Client    Client
	Loader    SpecLoader
	Observers []Observer

	// Logger
	Logger *slog.Logger
}

// Orchestrator проводит один SysTest через жизненный цикл.
//
// Orchestrator не хранит состояние между вызовами Run: каждый вызов —
// независимый run. Параллельные run с одним SystemName не поддерживаются.
type Orchestrator struct {
	systemName string
	owner      string
	specPath   string

	reserveDuration time.Duration
	immediate       bool
	deployTimeout   time.Duration
	undeployTimeout time.Duration
	wait            bool

	client    Client
	loader    SpecLoader
	observers observers
	logger    *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	reserveDuration := cfg.ReserveDuration
	if reserveDuration <= 0 {
		reserveDuration = DefaultReserveDuration
	}

	deployTimeout := cfg.DeployTimeout
	if deployTimeout <= 0 {
		deployTimeout = DefaultDeployTimeout
	}

	undeployTimeout := cfg.UndeployTimeout
	if undeployTimeout <= 0 {
		undeployTimeout = DefaultUndeployTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		systemName:      cfg.SystemName,
		owner:           cfg.Owner,
		specPath:        cfg.SpecPath,
		reserveDuration: reserveDuration,
		immediate:       !cfg.Scheduled,
		deployTimeout:   deployTimeout,
		undeployTimeout: undeployTimeout,
		wait:            !cfg.NoWait,
		client:          cfg.Client,
		loader:          cfg.Loader,
		observers:       observers{list: cfg.Observers, logger: logger},
		logger:          logger,
	}
}

// stepFunc выполняет один шаг и возвращает детали для отчёта.
type stepFunc func(ctx context.Context) (map[string]string, error)

// setupAction — шаг fail-fast префикса.
type setupAction struct {
	step domain.Step
	kind ErrorKind
	run  stepFunc
}

// Run выполняет полный жизненный цикл.
//
// Result возвращается всегда. Ошибка — *FatalError, если упал один из
// шагов load/create/reserve/deploy; в этом случае cleanup не выполняется.
// Ошибки cleanup не возвращаются: они в Result.Warnings.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := o.begin(ctx)
	logger := o.runLogger(res.Run)

	for _, action := range o.setupActions(res) {
		if err := o.execute(ctx, res, action.step, action.run); err != nil {
			fErr := fatal(action.step, action.kind, err)
			res.Outcome = OutcomeSetupFailure
			res.Err = fErr
			res.Run.MarkFailed(action.step, err.Error())

			logger.Error("run aborted",
				"step", action.step,
				"kind", action.kind,
				"state", res.Run.State,
				"error", err,
			)
			o.observers.RunFinished(ctx, res.Run)
			return res, fErr
		}
	}

	logger.Info("topology deployed", "deploy_status", deployStatus(res.Deployment))

	// Cleanup не прерывается отменой контекста: начатый teardown доводится до конца.
	o.runCleanup(context.WithoutCancel(ctx), res)
	o.succeed(ctx, res)

	return res, nil
}

// Teardown выполняет только cleanup-суффикс (undeploy, unreserve, delete)
// для SystemName. Используется оператором для ресурсов, оставшихся после
// неудачного setup. Всегда завершается OutcomeSuccess; ошибки шагов —
// в Result.Warnings.
func (o *Orchestrator) Teardown(ctx context.Context) (*Result, error) {
	res := o.begin(ctx)

	if err := o.validate(); err != nil {
		fErr := fatal(domain.StepLoad, KindConfiguration, err)
		res.Outcome = OutcomeSetupFailure
		res.Err = fErr
		res.Run.MarkFailed(domain.StepLoad, err.Error())
		o.observers.RunFinished(ctx, res.Run)
		return res, fErr
	}

	o.runCleanup(context.WithoutCancel(ctx), res)
	o.succeed(ctx, res)

	return res, nil
}

// begin создаёт run и оповещает observers.
func (o *Orchestrator) begin(ctx context.Context) *Result {
	run := domain.NewRun(o.systemName, o.owner, o.specPath)
	run.MarkRunning()

	o.runLogger(run).Info("run started",
		"owner", o.owner,
		"spec", o.specPath,
	)
	o.observers.RunStarted(ctx, run)

	return &Result{Run: run}
}

func (o *Orchestrator) succeed(ctx context.Context, res *Result) {
	res.Outcome = OutcomeSuccess
	res.Run.MarkSucceeded()

	o.runLogger(res.Run).Info("run succeeded",
		"state", res.Run.State,
		"warnings", len(res.Warnings),
		"duration", res.Run.Duration(),
	)
	o.observers.RunFinished(ctx, res.Run)
}

// setupActions возвращает fail-fast шаги в порядке выполнения.
// Каждый шаг пишет свой ответ в res; следующие шаги читают его оттуда.
func (o *Orchestrator) setupActions(res *Result) []setupAction {
	return []setupAction{
		{
			step: domain.StepLoad,
			kind: KindConfiguration,
			run: func(ctx context.Context) (map[string]string, error) {
				if err := o.validate(); err != nil {
					return nil, err
				}
				if o.loader == nil {
					return nil, ErrMissingLoader
				}
				spec, err := o.loader.Load(o.specPath)
				if err != nil {
					return nil, err
				}
				res.Spec = spec
				return map[string]string{"path": spec.Path}, nil
			},
		},
		{
			step: domain.StepCreate,
			kind: KindSetupRemote,
			run: func(ctx context.Context) (map[string]string, error) {
				systest, err := o.client.CreateSysTest(ctx, o.systemName, res.Spec.TopologyDefinition(), o.owner)
				if err != nil {
					return nil, err
				}
				res.SysTest = systest
				return map[string]string{"topology_name": systest.Name}, nil
			},
		},
		{
			step: domain.StepReserve,
			kind: KindSetupRemote,
			run: func(ctx context.Context) (map[string]string, error) {
				reservation, err := o.client.ReserveResources(ctx, o.systemName, o.owner, o.reserveDuration, o.immediate)
				if err != nil {
					return nil, err
				}
				res.Reservation = reservation
				return map[string]string{
					"immediate":    fmt.Sprint(reservation.Immediate),
					"reservation":  reservation.State,
					"duration_sec": fmt.Sprint(o.reserveDuration.Seconds()),
				}, nil
			},
		},
		{
			step: domain.StepDeploy,
			kind: KindSetupRemote,
			run: func(ctx context.Context) (map[string]string, error) {
				deployment, err := o.client.DeployTestbed(ctx, o.systemName, res.Spec.DeploySpec(), o.deployTimeout, o.wait)
				if err != nil {
					return nil, err
				}
				res.Deployment = deployment
				return map[string]string{"deploy_status": string(deployment.DeployStatus)}, nil
			},
		},
	}
}

// execute выполняет один шаг: оповещает observers, перехватывает панику,
// записывает StepRecord и продвигает выведенное состояние SysTest.
func (o *Orchestrator) execute(ctx context.Context, res *Result, step domain.Step, fn stepFunc) error {
	rec := domain.StepRecord{
		Step:      step,
		Phase:     step.Phase(),
		Status:    domain.StepStatusRunning,
		StartedAt: time.Now(),
	}

	logger := o.runLogger(res.Run).With("step", step)
	logger.Debug("step started", "phase", rec.Phase)
	o.observers.StepStarted(ctx, res.Run, step)

	detail, err := safeCall(telemetry.WithLogger(ctx, logger), fn)

	finished := time.Now()
	rec.FinishedAt = &finished
	rec.Detail = detail

	switch {
	case err == nil:
		rec.Status = domain.StepStatusSucceeded
		if target := step.Target(); target != domain.TopologyStateUnknown {
			res.Run.State = target
		}
	case rec.Phase == domain.PhaseCleanup:
		rec.Status = domain.StepStatusWarning
		rec.Error = err.Error()
	default:
		rec.Status = domain.StepStatusFailed
		rec.Error = err.Error()
	}

	res.Run.Steps = append(res.Run.Steps, rec)
	o.observers.StepFinished(ctx, res.Run, rec, err)

	return err
}

// safeCall вызывает fn, превращая панику в ErrStepPanicked.
func safeCall(ctx context.Context, fn stepFunc) (detail map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			detail = nil
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	return fn(ctx)
}

// validate проверяет identity и клиент. Loader нужен только для Run.
func (o *Orchestrator) validate() error {
	switch {
	case o.systemName == "":
		return ErrMissingSystemName
	case o.owner == "":
		return ErrMissingOwner
	case o.client == nil:
		return ErrMissingClient
	}
	return nil
}

func (o *Orchestrator) runLogger(run *domain.Run) *slog.Logger {
	return telemetry.WithSysTest(telemetry.WithRunID(o.logger, run.ID.String()), run.SysTestName)
}

func deployStatus(d *domain.Deployment) domain.DeployStatus {
	if d == nil {
		return ""
	}
	return d.DeployStatus
}

package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/cybernetics/kovert/internal/cluster"
	"github.com/cybernetics/kovert/internal/config"
	"github.com/cybernetics/kovert/internal/future"
	"github.com/cybernetics/kovert/internal/platform"
	"github.com/cybernetics/kovert/internal/telemetry"
	"github.com/cybernetics/kovert/internal/verticle"
)

// Deployment — результат успешного запуска.
type Deployment struct {
	Runtime      platform.Runtime
	DeploymentID string
}

// UnitFactory создаёт unit с пользовательскими маршрутами и сигналом готовности.
type UnitFactory func(routerInit func(*verticle.Router), ready *verticle.ReadySignal) platform.Unit

// ClusterManagerFactory создаёт менеджер кластера по имени и паролю группы.
type ClusterManagerFactory func(groupName, groupPassphrase string) platform.ClusterManager

// Orchestrator запускает runtime и разворачивает unit.
type Orchestrator struct {
	runtimeConfig config.RuntimeConfig
	workingDir    string
	props         *config.Context
	acquirer      platform.Acquirer
	newUnit       UnitFactory
	newClusterMgr ClusterManagerFactory
	cores         int
	readyTimeout  time.Duration
	logger        *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// RuntimeConfig — настройки runtime (default: config.DefaultRuntimeConfig()).
	RuntimeConfig *config.RuntimeConfig

	// WorkingDir — явная рабочая директория (опционально).
	WorkingDir string

	// Props — свойства процесса (default: config.Process()).
	Props *config.Context

	// Acquirer (default: platform.DefaultAcquirer{}).
	Acquirer platform.Acquirer

	// NewUnit — фабрика unit (default: HTTP verticle на verticle.DefaultAddr).
	NewUnit UnitFactory

	// NewClusterManager — фабрика менеджера кластера
	// (default: cluster.Manager с реестром в памяти).
	NewClusterManager ClusterManagerFactory

	// Cores — число ядер для расчёта пула (default: runtime.NumCPU()).
	Cores int

	// ReadyTimeout — предел ожидания готовности unit (default: без предела).
	ReadyTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runtimeConfig := config.DefaultRuntimeConfig()
	if cfg.RuntimeConfig != nil {
		runtimeConfig = *cfg.RuntimeConfig
	}

	props := cfg.Props
	if props == nil {
		props = config.Process()
	}

	acquirer := cfg.Acquirer
	if acquirer == nil {
		acquirer = platform.DefaultAcquirer{}
	}

	newUnit := cfg.NewUnit
	if newUnit == nil {
		newUnit = verticle.Factory(verticle.DefaultAddr, logger)
	}

	newClusterMgr := cfg.NewClusterManager
	if newClusterMgr == nil {
		newClusterMgr = MemoryClusterManager(logger)
	}

	cores := cfg.Cores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}

	return &Orchestrator{
		runtimeConfig: runtimeConfig,
		workingDir:    cfg.WorkingDir,
		props:         props,
		acquirer:      acquirer,
		newUnit:       newUnit,
		newClusterMgr: newClusterMgr,
		cores:         cores,
		readyTimeout:  cfg.ReadyTimeout,
		logger:        logger,
	}
}

// MemoryClusterManager возвращает фабрику cluster.Manager с реестром в памяти.
func MemoryClusterManager(logger *slog.Logger) ClusterManagerFactory {
	return func(groupName, groupPassphrase string) platform.ClusterManager {
		return cluster.NewManager(cluster.Config{
			GroupName:       groupName,
			GroupPassphrase: groupPassphrase,
			Logger:          logger,
		})
	}
}

// StartRuntime запускает runtime и разворачивает unit.
//
// optionsInit применяется к platform.Options последним и может изменить
// любое поле, включая Clustered: менеджер кластера строится всегда и
// отбрасывается при автономном запуске. routerInit передаётся фабрике unit.
// Оба аргумента могут быть nil.
//
// Ошибка разрешения конфигурации завершает future синхронно.
// Получение runtime, деплой и ожидание готовности идут в отдельной горутине.
func (o *Orchestrator) StartRuntime(
	optionsInit platform.OptionsCustomizer,
	routerInit func(*verticle.Router),
) (result *future.Future[Deployment]) {
	result = future.New[Deployment]()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.recovered(result, started, r)
		}
	}()

	o.logger.Info("starting runtime")

	resolved, err := config.Resolve(o.runtimeConfig, o.workingDir, o.props, o.cores)
	if err != nil {
		o.logger.Error("invalid runtime configuration", "error", err)
		o.fail(result, started, telemetry.OutcomeConfigError, err)
		return result
	}

	opts := platform.Options{
		WorkerPoolSize: resolved.WorkerPoolSize,
		Clustered:      resolved.Config.Clustered,
		ClusterManager: o.newClusterMgr(resolved.Config.ClusterName, resolved.Config.ClusterPassphrase),
		Context:        o.props,
		WorkingDir:     resolved.WorkingDir,
		Logger:         o.logger,
	}
	if optionsInit != nil {
		optionsInit(&opts)
	}

	go o.run(result, started, opts, routerInit)
	return result
}

func (o *Orchestrator) run(
	result *future.Future[Deployment],
	started time.Time,
	opts platform.Options,
	routerInit func(*verticle.Router),
) {
	ctx := context.Background()
	var rt platform.Runtime

	defer func() {
		if r := recover(); r != nil {
			if rt != nil && result.Status() == future.StatusPending {
				o.closeRuntime(ctx, o.logger, rt)
			}
			o.recovered(result, started, r)
		}
	}()

	rt, err := o.acquire(ctx, opts)
	if err != nil {
		o.logger.Error("runtime acquisition failed", "clustered", opts.Clustered, "error", err)
		o.fail(result, started, telemetry.OutcomeAcquisitionFailed,
			fmt.Errorf("%w: %w", ErrRuntimeAcquisition, err))
		return
	}
	logger := telemetry.WithRuntimeID(o.logger, rt.ID().String())

	ready := verticle.NewReadySignal()
	unit := o.newUnit(routerInit, ready)

	deploymentID, err := rt.Deploy(ctx, unit)
	if err != nil {
		logger.Error("deployment failed", "error", err)
		o.closeRuntime(ctx, logger, rt)
		o.fail(result, started, telemetry.OutcomeDeploymentFailed,
			fmt.Errorf("%w: %w", ErrDeployment, err))
		return
	}
	logger = telemetry.WithDeploymentID(logger, deploymentID)
	logger.Info("unit deployed")

	if err := o.awaitReady(ready); err != nil {
		logger.Error("deployment failed", "error", err)
		o.closeRuntime(ctx, logger, rt)
		o.fail(result, started, telemetry.OutcomeDeploymentFailed,
			fmt.Errorf("%w: %w", ErrDeployment, err))
		return
	}

	logger.Info("unit is listening and ready", "startup", time.Since(started))
	if result.Resolve(Deployment{Runtime: rt, DeploymentID: deploymentID}) {
		telemetry.RecordStartup(telemetry.OutcomeReady, time.Since(started))
	}
}

func (o *Orchestrator) acquire(ctx context.Context, opts platform.Options) (platform.Runtime, error) {
	if opts.Clustered {
		return o.acquirer.AcquireClustered(ctx, opts, opts.ClusterManager)
	}
	opts.ClusterManager = nil
	return o.acquirer.AcquireStandalone(ctx, opts)
}

// awaitReady ждёт сигнала готовности; без ReadyTimeout ждёт бесконечно.
func (o *Orchestrator) awaitReady(ready *verticle.ReadySignal) error {
	if o.readyTimeout <= 0 {
		<-ready.Done()
		return nil
	}

	timer := time.NewTimer(o.readyTimeout)
	defer timer.Stop()

	select {
	case <-ready.Done():
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: waited %s", ErrReadyTimeout, o.readyTimeout)
	}
}

// closeRuntime закрывает runtime после неудачного запуска: ссылка на него
// наружу не уходит.
func (o *Orchestrator) closeRuntime(ctx context.Context, logger *slog.Logger, rt platform.Runtime) {
	if err := rt.Close(ctx); err != nil {
		logger.Warn("failed to close runtime after startup failure", "error", err)
	}
}

func (o *Orchestrator) fail(result *future.Future[Deployment], started time.Time, outcome string, err error) {
	if result.Reject(err) {
		telemetry.RecordStartup(outcome, time.Since(started))
	}
}

// recovered завершает future ошибкой ErrUnexpected с причиной паники.
func (o *Orchestrator) recovered(result *future.Future[Deployment], started time.Time, r any) {
	o.logger.Error("panic during startup", "panic", r, "stack", string(debug.Stack()))

	err, ok := r.(error)
	if ok {
		err = fmt.Errorf("%w: %w", ErrUnexpected, err)
	} else {
		err = fmt.Errorf("%w: %v", ErrUnexpected, r)
	}
	o.fail(result, started, telemetry.OutcomeUnexpected, err)
}

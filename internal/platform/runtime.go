package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cybernetics/kovert/internal/config"
	"github.com/cybernetics/kovert/internal/domain"
	"github.com/cybernetics/kovert/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Unit — развёртываемая единица работы.
type Unit interface {
	// Name — имя unit для логов и реестра деплоев.
	Name() string

	// Start запускает unit. Вызывается один раз при Deploy.
	Start(ctx context.Context, dc DeployContext) error

	// Stop останавливает unit. Вызывается при Undeploy и Close.
	Stop(ctx context.Context) error
}

// DeployContext передаётся unit при запуске.
type DeployContext struct {
	DeploymentID string
	Runtime      Runtime
	Logger       *slog.Logger
}

// Runtime — запущенная среда исполнения units.
type Runtime interface {
	ID() uuid.UUID
	IsClustered() bool
	Deploy(ctx context.Context, unit Unit) (string, error)
	Undeploy(ctx context.Context, deploymentID string) error
	ExecuteBlocking(ctx context.Context, fn func(ctx context.Context) error) error
	Close(ctx context.Context) error
}

type deployed struct {
	unit   Unit
	record domain.Deployment
}

// Instance — реализация Runtime.
type Instance struct {
	id     uuid.UUID
	opts   Options
	sem    *semaphore.Weighted
	logger *slog.Logger

	mu          sync.Mutex
	deployments map[string]*deployed
	closed      bool
}

// NewInstance создаёт runtime. Кластерное членство не затрагивается:
// Join выполняет Acquirer.
func NewInstance(opts Options) *Instance {
	if opts.WorkerPoolSize <= 0 {
		opts.WorkerPoolSize = 1
	}
	if opts.Context == nil {
		opts.Context = config.Process()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New()
	return &Instance{
		id:          id,
		opts:        opts,
		sem:         semaphore.NewWeighted(int64(opts.WorkerPoolSize)),
		logger:      telemetry.WithRuntimeID(logger, id.String()),
		deployments: make(map[string]*deployed),
	}
}

// ID возвращает идентификатор runtime (узла).
func (r *Instance) ID() uuid.UUID {
	return r.id
}

// IsClustered сообщает, кластерный ли runtime.
func (r *Instance) IsClustered() bool {
	return r.opts.Clustered
}

// Options возвращает параметры, с которыми создан runtime.
func (r *Instance) Options() Options {
	return r.opts
}

// Deploy запускает unit и возвращает идентификатор деплоя.
func (r *Instance) Deploy(ctx context.Context, unit Unit) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrRuntimeClosed
	}
	r.mu.Unlock()

	deploymentID := uuid.NewString()
	logger := telemetry.WithDeploymentID(r.logger, deploymentID)

	err := unit.Start(ctx, DeployContext{
		DeploymentID: deploymentID,
		Runtime:      r,
		Logger:       logger,
	})
	if err != nil {
		return "", fmt.Errorf("start unit %s: %w", unit.Name(), err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		// Runtime закрыли во время Start — unit не должен пережить его.
		_ = unit.Stop(context.WithoutCancel(ctx))
		return "", ErrRuntimeClosed
	}
	r.deployments[deploymentID] = &deployed{
		unit: unit,
		record: domain.Deployment{
			ID:         deploymentID,
			RuntimeID:  r.id,
			Unit:       unit.Name(),
			Status:     domain.DeploymentStatusDeployed,
			DeployedAt: time.Now(),
		},
	}
	r.mu.Unlock()

	telemetry.DeploymentAdded()
	logger.Info("unit deployed", "unit", unit.Name())
	return deploymentID, nil
}

// Undeploy останавливает unit и удаляет его из реестра.
func (r *Instance) Undeploy(ctx context.Context, deploymentID string) error {
	r.mu.Lock()
	d, ok := r.deployments[deploymentID]
	if ok {
		delete(r.deployments, deploymentID)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrDeploymentNotFound, deploymentID)
	}
	return r.stop(ctx, d)
}

func (r *Instance) stop(ctx context.Context, d *deployed) error {
	defer telemetry.DeploymentRemoved()
	logger := telemetry.WithDeploymentID(r.logger, d.record.ID)

	if err := d.unit.Stop(ctx); err != nil {
		d.record.MarkFailed(err.Error())
		logger.Error("unit stop failed", "unit", d.unit.Name(), "error", err)
		return fmt.Errorf("stop unit %s: %w", d.unit.Name(), err)
	}

	d.record.MarkUndeployed()
	logger.Info("unit undeployed", "unit", d.unit.Name())
	return nil
}

// Deployments возвращает активные деплои, старшие первыми.
func (r *Instance) Deployments() []domain.Deployment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Deployment, 0, len(r.deployments))
	for _, d := range r.deployments {
		out = append(out, d.record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeployedAt.Before(out[j].DeployedAt)
	})
	return out
}

// ExecuteBlocking выполняет fn в пределах пула воркеров.
// Если пул занят, ждёт свободного слота или отмены ctx.
func (r *Instance) ExecuteBlocking(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)
	return fn(ctx)
}

// Close останавливает все units и выводит узел из кластера.
// Повторный вызов — no-op.
func (r *Instance) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	all := make([]*deployed, 0, len(r.deployments))
	for _, d := range r.deployments {
		all = append(all, d)
	}
	r.deployments = make(map[string]*deployed)
	r.mu.Unlock()

	r.logger.Info("closing runtime", "deployments", len(all))

	var g errgroup.Group
	for _, d := range all {
		g.Go(func() error {
			return r.stop(ctx, d)
		})
	}
	err := g.Wait()

	if r.opts.Clustered && r.opts.ClusterManager != nil {
		if leaveErr := r.opts.ClusterManager.Leave(ctx); leaveErr != nil {
			err = errors.Join(err, fmt.Errorf("leave cluster: %w", leaveErr))
		}
	}

	r.logger.Info("runtime closed")
	return err
}

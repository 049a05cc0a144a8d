package platform

import (
	"context"
	"fmt"
)

// Acquirer получает запущенный runtime.
type Acquirer interface {
	AcquireStandalone(ctx context.Context, opts Options) (Runtime, error)
	AcquireClustered(ctx context.Context, opts Options, cm ClusterManager) (Runtime, error)
}

// DefaultAcquirer создаёт Instance.
type DefaultAcquirer struct{}

// AcquireStandalone создаёт автономный runtime.
func (DefaultAcquirer) AcquireStandalone(_ context.Context, opts Options) (Runtime, error) {
	opts.Clustered = false
	opts.ClusterManager = nil
	return NewInstance(opts), nil
}

// AcquireClustered создаёт runtime и вводит его в кластерную группу.
func (DefaultAcquirer) AcquireClustered(ctx context.Context, opts Options, cm ClusterManager) (Runtime, error) {
	if cm == nil {
		return nil, ErrNoClusterManager
	}

	opts.Clustered = true
	opts.ClusterManager = cm
	rt := NewInstance(opts)

	if err := cm.Join(ctx, rt.ID()); err != nil {
		return nil, fmt.Errorf("join cluster group %q: %w", cm.GroupName(), err)
	}
	return rt, nil
}

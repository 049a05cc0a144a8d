package platform

import (
	"context"
	"log/slog"

	"github.com/cybernetics/kovert/internal/config"
	"github.com/google/uuid"
)

// ClusterManager — членство runtime в кластерной группе.
// Реализация: cluster.Manager.
type ClusterManager interface {
	GroupName() string
	Join(ctx context.Context, nodeID uuid.UUID) error
	Leave(ctx context.Context) error
}

// Options — параметры создания runtime.
type Options struct {
	// WorkerPoolSize — число одновременных блокирующих операций.
	WorkerPoolSize int

	// Clustered — кластерный режим.
	Clustered bool

	// ClusterManager — менеджер группы; используется при Clustered.
	ClusterManager ClusterManager

	// Context — свойства окружения runtime (кэш, рабочая директория).
	Context *config.Context

	// WorkingDir — разрешённая рабочая директория.
	WorkingDir string

	// Logger
	Logger *slog.Logger
}

// OptionsCustomizer — последний слой изменения Options перед запуском.
type OptionsCustomizer func(*Options)

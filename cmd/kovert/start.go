package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cybernetics/kovert/internal/cli"
	"github.com/cybernetics/kovert/internal/cluster"
	"github.com/cybernetics/kovert/internal/config"
	"github.com/cybernetics/kovert/internal/domain"
	"github.com/cybernetics/kovert/internal/mq"
	"github.com/cybernetics/kovert/internal/orchestrator"
	"github.com/cybernetics/kovert/internal/platform"
	"github.com/cybernetics/kovert/internal/repo"
	"github.com/cybernetics/kovert/internal/telemetry"
	"github.com/cybernetics/kovert/internal/verticle"
)

// envAddr — адрес HTTP unit.
const envAddr = "KOVERT_ADDR"

// clusterDeps — инфраструктура кластерного режима.
type clusterDeps struct {
	store     cluster.Store
	announcer cluster.Announcer
	conn      *mq.Connection
	pool      *pgxpool.Pool
}

func (d *clusterDeps) close() {
	if d.conn != nil {
		d.conn.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

func runStart(ctx context.Context, opts cli.StartOptions) error {
	logger := telemetry.SetupLogger()
	logger.Info("starting kovert", "version", version)

	cfg, err := loadRuntimeConfig(opts)
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = os.Getenv(envAddr)
	}
	if addr == "" {
		addr = verticle.DefaultAddr
	}

	deps := &clusterDeps{store: cluster.NewMemoryStore()}
	if cfg.Clustered {
		deps = connectCluster(ctx, logger)
	}
	defer deps.close()

	orch := orchestrator.New(orchestrator.Config{
		RuntimeConfig: &cfg,
		WorkingDir:    opts.WorkingDir,
		NewUnit:       verticle.Factory(addr, logger),
		NewClusterManager: func(group, pass string) platform.ClusterManager {
			return cluster.NewManager(cluster.Config{
				GroupName:       group,
				GroupPassphrase: pass,
				Store:           deps.store,
				Announcer:       deps.announcer,
				EventConn:       deps.conn,
				Logger:          logger,
			})
		},
		ReadyTimeout: opts.ReadyTimeout,
		Logger:       logger,
	})

	var manager *cluster.Manager
	result := orch.StartRuntime(func(o *platform.Options) {
		if o.Clustered {
			manager, _ = o.ClusterManager.(*cluster.Manager)
		}
	}, func(r *verticle.Router) {
		r.HandleBlocking("GET /_kovert/members", membersHandler(manager))
	})

	dep, err := result.Await(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted before the runtime became ready")
			return nil
		}
		return err
	}
	logger.Info("kovert is running", "runtime_id", dep.Runtime.ID(), "deployment_id", dep.DeploymentID)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()

	if err := dep.Runtime.Close(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("stopped")
	return nil
}

// MembersInfo — ответ /_kovert/members.
type MembersInfo struct {
	Group   string               `json:"group"`
	Members []domain.Member      `json:"members"`
	Peers   []domain.MemberEvent `json:"peers"`
}

// membersHandler отдаёт реестр группы и соседей, замеченных через шину.
func membersHandler(manager *cluster.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if manager == nil {
			verticle.NotFound(w, "runtime is not clustered")
			return
		}
		members, err := manager.Members(req.Context())
		if err != nil {
			verticle.InternalError(w, telemetry.FromContext(req.Context()), err)
			return
		}

		peers := make([]domain.MemberEvent, 0)
		for _, ev := range manager.Peers() {
			peers = append(peers, ev)
		}
		sort.Slice(peers, func(i, j int) bool {
			return peers[i].NodeID.String() < peers[j].NodeID.String()
		})

		verticle.Success(w, MembersInfo{
			Group:   manager.GroupName(),
			Members: members,
			Peers:   peers,
		})
	})
}

// loadRuntimeConfig: значения по умолчанию < файл < окружение < флаги.
func loadRuntimeConfig(opts cli.StartOptions) (config.RuntimeConfig, error) {
	cfg := config.DefaultRuntimeConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadFile(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if opts.Standalone {
		cfg.Clustered = false
	}
	return cfg, nil
}

// connectCluster подключает реестр участников и шину событий.
// Недоступная БД заменяется реестром в памяти, недоступный брокер
// отключает события.
func connectCluster(ctx context.Context, logger *slog.Logger) *clusterDeps {
	deps := &clusterDeps{}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := repo.NewPool(connCtx)
	if err == nil {
		clusterRepo := repo.NewClusterRepo(pool)
		if err = clusterRepo.EnsureSchema(connCtx); err == nil {
			deps.pool = pool
			deps.store = clusterRepo
			logger.Info("cluster registry: postgres")
		} else {
			pool.Close()
		}
	}
	if deps.store == nil {
		logger.Warn("database not available, using in-memory cluster registry", "error", err)
		deps.store = cluster.NewMemoryStore()
	}

	host, _ := os.Hostname()
	conn, err := mq.NewConnection(mq.ConnectionConfig{
		URL:    mq.URLFromEnv(),
		Name:   "kovert@" + host,
		Logger: logger,
	})
	if err != nil {
		logger.Warn("RabbitMQ not available, cluster events disabled", "error", err)
		return deps
	}
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(connCtx, conn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
		conn.Close()
		return deps
	}

	deps.conn = conn
	deps.announcer = mq.NewPublisher(conn, logger)
	return deps
}

package verticle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/cybernetics/kovert/internal/platform"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr — адрес по умолчанию.
const DefaultAddr = ":8080"

// Config — конфигурация HTTPVerticle.
type Config struct {
	// Addr — адрес для net.Listen (по умолчанию DefaultAddr).
	Addr string

	// RouterInit регистрирует пользовательские маршруты.
	RouterInit func(*Router)

	// Ready зажигается после bind.
	Ready *ReadySignal

	// ReadHeaderTimeout для http.Server (по умолчанию 10s).
	ReadHeaderTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// HTTPVerticle — unit, обслуживающий HTTP.
type HTTPVerticle struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	server    *http.Server
	addr      net.Addr
	dc        platform.DeployContext
	startedAt time.Time
	serveErr  chan error
}

// NewHTTPVerticle создаёт HTTPVerticle.
func NewHTTPVerticle(cfg Config) *HTTPVerticle {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Ready == nil {
		cfg.Ready = NewReadySignal()
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPVerticle{
		cfg:    cfg,
		logger: logger,
	}
}

// Factory возвращает фабрику units для оркестратора.
func Factory(addr string, logger *slog.Logger) func(routerInit func(*Router), ready *ReadySignal) platform.Unit {
	return func(routerInit func(*Router), ready *ReadySignal) platform.Unit {
		return NewHTTPVerticle(Config{
			Addr:       addr,
			RouterInit: routerInit,
			Ready:      ready,
			Logger:     logger,
		})
	}
}

// Name возвращает имя unit.
func (v *HTTPVerticle) Name() string {
	return "http"
}

// Ready возвращает сигнал готовности unit.
func (v *HTTPVerticle) Ready() *ReadySignal {
	return v.cfg.Ready
}

// Addr возвращает фактический адрес после bind, иначе nil.
func (v *HTTPVerticle) Addr() net.Addr {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.addr
}

// Start открывает сокет, запускает сервер и зажигает сигнал готовности.
func (v *HTTPVerticle) Start(_ context.Context, dc platform.DeployContext) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.server != nil {
		return ErrAlreadyStarted
	}
	if dc.Logger != nil {
		v.logger = dc.Logger
	}
	v.dc = dc

	router := NewRouter()
	if dc.Runtime != nil {
		router.executor = dc.Runtime
	}
	router.Use(Recovery(v.logger), Logging(v.logger), Metrics())
	router.HandleFunc("GET /healthz", v.handleHealthz)
	router.Handle("GET /metrics", promhttp.Handler())
	router.HandleFunc("GET /_kovert/deployment", v.handleDeployment)
	if v.cfg.RouterInit != nil {
		v.cfg.RouterInit(router)
	}

	ln, err := net.Listen("tcp", v.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrListen, v.cfg.Addr, err)
	}

	v.server = &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: v.cfg.ReadHeaderTimeout,
	}
	v.addr = ln.Addr()
	v.startedAt = time.Now()
	v.serveErr = make(chan error, 1)

	server, serveErr, logger := v.server, v.serveErr, v.logger
	go func() {
		err := server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
		serveErr <- err
		close(serveErr)
	}()

	v.logger.Info("listening", "addr", v.addr.String())
	v.cfg.Ready.Fire()
	return nil
}

// Stop останавливает сервер, дожидаясь завершения активных запросов.
func (v *HTTPVerticle) Stop(ctx context.Context) error {
	v.mu.Lock()
	server, serveErr := v.server, v.serveErr
	v.mu.Unlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	<-serveErr
	v.logger.Info("http server stopped")
	return nil
}

func (v *HTTPVerticle) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	v.mu.Lock()
	startedAt := v.startedAt
	v.mu.Unlock()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ok %s", time.Since(startedAt).Round(time.Millisecond))
}

// DeploymentInfo — ответ /_kovert/deployment.
type DeploymentInfo struct {
	RuntimeID      string              `json:"runtime_id,omitempty"`
	DeploymentID   string              `json:"deployment_id"`
	Clustered      bool                `json:"clustered"`
	Addr           string              `json:"addr"`
	WorkerPoolSize int                 `json:"worker_pool_size,omitempty"`
	WorkingDir     string              `json:"working_dir,omitempty"`
	FileCaching    *FileCachingInfo    `json:"file_caching,omitempty"`
	Deployments    []domain.Deployment `json:"deployments,omitempty"`
}

// FileCachingInfo — опубликованные свойства файлового кэша.
type FileCachingInfo struct {
	Enabled bool   `json:"enabled"`
	BaseDir string `json:"base_dir,omitempty"`
}

// deploymentLister — runtime, умеющий перечислить свои деплои.
type deploymentLister interface {
	Deployments() []domain.Deployment
}

// optionsProvider — runtime, раскрывающий параметры запуска.
type optionsProvider interface {
	Options() platform.Options
}

func (v *HTTPVerticle) handleDeployment(w http.ResponseWriter, _ *http.Request) {
	v.mu.Lock()
	dc, addr := v.dc, v.addr
	v.mu.Unlock()

	info := DeploymentInfo{DeploymentID: dc.DeploymentID}
	if addr != nil {
		info.Addr = addr.String()
	}
	if dc.Runtime != nil {
		info.RuntimeID = dc.Runtime.ID().String()
		info.Clustered = dc.Runtime.IsClustered()
		if l, ok := dc.Runtime.(deploymentLister); ok {
			info.Deployments = l.Deployments()
		}
		if p, ok := dc.Runtime.(optionsProvider); ok {
			opts := p.Options()
			info.WorkerPoolSize = opts.WorkerPoolSize
			info.WorkingDir = opts.WorkingDir
			if props := opts.Context; props != nil {
				base, _ := props.CacheDirBase()
				info.FileCaching = &FileCachingInfo{
					Enabled: !props.FileCachingDisabled(),
					BaseDir: base,
				}
			}
		}
	}

	Success(w, info)
}

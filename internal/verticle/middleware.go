package verticle

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/cybernetics/kovert/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kovert",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served by deployed units.",
	}, []string{"method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kovert",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency of deployed units.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// Middleware — функция-обёртка для http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware в порядке слева направо.
// Chain(m1, m2)(handler) = m1(m2(handler))
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Logging логирует HTTP запросы.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Обработчики получают логгер через telemetry.FromContext.
			next.ServeHTTP(rw, r.WithContext(telemetry.WithLogger(r.Context(), logger)))

			level := slog.LevelInfo
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// Metrics считает запросы и их длительность.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)

			httpRequests.WithLabelValues(r.Method, strconv.Itoa(rw.status)).Inc()
			httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// Recovery восстанавливается после паники в обработчике.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					InternalError(w, logger, nil)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder запоминает статус ответа.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// Executor выполняет блокирующую работу в пуле воркеров.
// Реализация: platform.Runtime.
type Executor interface {
	ExecuteBlocking(ctx context.Context, fn func(ctx context.Context) error) error
}

// Blocking выполняет обработчик в пуле воркеров exec.
// Запрос ждёт свободного воркера; если запрос отменён раньше, отвечает 503.
// При nil exec обработчик вызывается напрямую.
func Blocking(exec Executor) Middleware {
	return func(next http.Handler) http.Handler {
		if exec == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := exec.ExecuteBlocking(r.Context(), func(ctx context.Context) error {
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			})
			if err != nil {
				telemetry.FromContext(r.Context()).Warn("no worker for request", "path", r.URL.Path, "error", err)
				Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "no worker available")
			}
		})
	}
}

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Default configuration values.
const (
	defaultJobTimeout = 5 * time.Second
)

// Job — периодическая задача.
type Job func(ctx context.Context) error

// Scheduler выполняет Job по расписанию.
//
// Запуски одной задачи не перекрываются: если предыдущий ещё
// выполняется, очередной пропускается.
type Scheduler struct {
	spec       string
	job        Job
	jobTimeout time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// Config — конфигурация Scheduler.
type Config struct {
	// Spec — расписание (cron-выражение или дескриптор).
	Spec string

	// Job — выполняемая задача.
	Job Job

	// JobTimeout — таймаут одного запуска (default: 5s).
	JobTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Scheduler. Расписание проверяется сразу.
func New(cfg Config) (*Scheduler, error) {
	if err := ValidateSpec(cfg.Spec); err != nil {
		return nil, err
	}
	if cfg.Job == nil {
		return nil, fmt.Errorf("scheduler: job is required")
	}

	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		spec:       cfg.Spec,
		job:        cfg.Job,
		jobTimeout: jobTimeout,
		logger:     logger,
	}, nil
}

// Start запускает выполнение по расписанию. Повторный вызов — no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(s.spec, s.runJob); err != nil {
		return fmt.Errorf("add job %q: %w", s.spec, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Debug("scheduler started", "spec", s.spec)
	return nil
}

// Stop останавливает расписание и ждёт завершения текущего запуска.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	if c == nil {
		return
	}

	<-c.Stop().Done()
	s.logger.Debug("scheduler stopped", "spec", s.spec)
}

// IsRunning сообщает, запущен ли Scheduler.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow выполняет задачу немедленно, вне расписания.
func (s *Scheduler) RunNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	return s.job(ctx)
}

func (s *Scheduler) runJob() {
	if err := s.RunNow(context.Background()); err != nil {
		s.logger.Warn("scheduled job failed", "spec", s.spec, "error", err)
	}
}

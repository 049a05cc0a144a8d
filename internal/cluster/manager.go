package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/cybernetics/kovert/internal/mq"
	"github.com/cybernetics/kovert/internal/scheduler"
	"github.com/cybernetics/kovert/internal/telemetry"
	"github.com/google/uuid"
)

// Default configuration values.
const (
	defaultHeartbeatInterval = 5 * time.Second
	leaveTimeout             = 5 * time.Second
)

// Announcer публикует события участника. Реализация: mq.Publisher.
type Announcer interface {
	PublishMemberEvent(ctx context.Context, event domain.MemberEvent) error
}

// Manager — кластерный менеджер одной группы.
type Manager struct {
	group      string
	passphrase string
	hashCost   int
	host       string
	interval   time.Duration

	store     Store
	announcer Announcer
	eventConn *mq.Connection
	logger    *slog.Logger

	mu        sync.Mutex
	nodeID    uuid.UUID
	joined    bool
	joining   bool
	heartbeat *scheduler.Scheduler
	events    *EventListener
	peers     map[uuid.UUID]domain.MemberEvent
}

// Config — конфигурация Manager.
type Config struct {
	// GroupName и GroupPassphrase — учётные данные группы (обязательны для Join).
	GroupName       string
	GroupPassphrase string

	// Store — реестр участников (default: NewMemoryStore()).
	Store Store

	// Announcer — публикация событий (опционально).
	Announcer Announcer

	// EventConn — соединение для прослушивания событий группы (опционально).
	EventConn *mq.Connection

	// HeartbeatInterval — интервал heartbeat (default: 5s).
	HeartbeatInterval time.Duration

	// PassphraseCost — стоимость bcrypt (default: bcrypt.DefaultCost).
	PassphraseCost int

	// Host — имя хоста в записи участника (default: os.Hostname()).
	Host string

	// Logger
	Logger *slog.Logger
}

// NewManager создаёт новый Manager. Учётные данные проверяются в Join.
func NewManager(cfg Config) *Manager {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}

	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}

	host := cfg.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		group:      cfg.GroupName,
		passphrase: cfg.GroupPassphrase,
		hashCost:   cfg.PassphraseCost,
		host:       host,
		interval:   interval,
		store:      store,
		announcer:  cfg.Announcer,
		eventConn:  cfg.EventConn,
		logger:     telemetry.WithGroup(logger, cfg.GroupName),
		peers:      make(map[uuid.UUID]domain.MemberEvent),
	}
}

// GroupName возвращает имя группы.
func (m *Manager) GroupName() string {
	return m.group
}

// NodeID возвращает идентификатор узла после Join.
func (m *Manager) NodeID() (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodeID, m.joined
}

// Join вводит узел nodeID в группу.
//
//  1. Проверка учётных данных
//  2. Создание группы или проверка пароля
//  3. Запись участника
//  4. Публикация member.joined (ошибки публикации только логируются)
//  5. Запуск heartbeat и прослушивания событий
func (m *Manager) Join(ctx context.Context, nodeID uuid.UUID) error {
	if strings.TrimSpace(m.group) == "" || strings.TrimSpace(m.passphrase) == "" {
		return ErrMissingCredentials
	}

	m.mu.Lock()
	if m.joined || m.joining {
		m.mu.Unlock()
		return ErrAlreadyJoined
	}
	m.joining = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.joining = false
		m.mu.Unlock()
	}()

	hash, err := HashPassphrase(m.passphrase, m.hashCost)
	if err != nil {
		return err
	}

	group, err := m.store.EnsureGroup(ctx, m.group, hash)
	if err != nil {
		return fmt.Errorf("ensure group %q: %w", m.group, err)
	}
	if err := VerifyPassphrase(group.PassphraseHash, m.passphrase); err != nil {
		return fmt.Errorf("join group %q: %w", m.group, err)
	}

	now := time.Now()
	member := domain.Member{
		NodeID:     nodeID,
		Group:      m.group,
		Host:       m.host,
		JoinedAt:   now,
		LastSeenAt: now,
	}
	if err := m.store.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("register member: %w", err)
	}

	m.mu.Lock()
	m.nodeID = nodeID
	m.joined = true
	m.mu.Unlock()

	m.announce(ctx, domain.MemberJoined)

	hb, err := scheduler.New(scheduler.Config{
		Spec:   scheduler.EverySpec(m.interval),
		Job:    m.beat,
		Logger: m.logger,
	})
	if err != nil {
		return errors.Join(fmt.Errorf("heartbeat: %w", err), m.Leave(ctx))
	}
	if err := hb.Start(); err != nil {
		return errors.Join(fmt.Errorf("heartbeat: %w", err), m.Leave(ctx))
	}

	m.mu.Lock()
	m.heartbeat = hb
	if m.eventConn != nil {
		m.events = NewEventListener(m.eventConn, m.group, nodeID, m.logger, m.observe)
		m.events.Start()
	}
	m.mu.Unlock()

	m.logger.Info("joined cluster group", "node_id", nodeID, "host", m.host)
	return nil
}

// Leave выводит узел из группы. Повторный вызов — no-op.
func (m *Manager) Leave(ctx context.Context) error {
	m.mu.Lock()
	if !m.joined {
		m.mu.Unlock()
		return nil
	}
	nodeID := m.nodeID
	hb := m.heartbeat
	events := m.events
	m.joined = false
	m.heartbeat = nil
	m.events = nil
	m.mu.Unlock()

	if hb != nil {
		hb.Stop()
	}
	if events != nil {
		events.Stop()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
	defer cancel()

	m.announceFor(ctx, nodeID, domain.MemberLeft)

	if err := m.store.DeleteMember(ctx, m.group, nodeID); err != nil {
		return fmt.Errorf("deregister member: %w", err)
	}

	m.logger.Info("left cluster group", "node_id", nodeID)
	return nil
}

// Members возвращает участников группы из реестра.
func (m *Manager) Members(ctx context.Context) ([]domain.Member, error) {
	return m.store.ListMembers(ctx, m.group)
}

// Peers возвращает последние события соседей, полученные через шину.
func (m *Manager) Peers() map[uuid.UUID]domain.MemberEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uuid.UUID]domain.MemberEvent, len(m.peers))
	for id, ev := range m.peers {
		out[id] = ev
	}
	return out
}

// beat — один heartbeat участника.
func (m *Manager) beat(ctx context.Context) error {
	m.mu.Lock()
	nodeID, joined := m.nodeID, m.joined
	m.mu.Unlock()
	if !joined {
		return ErrNotJoined
	}

	now := time.Now()
	found, err := m.store.TouchMember(ctx, m.group, nodeID, now)
	if err == nil && !found {
		// Запись удалена (например, чисткой устаревших участников) — восстанавливаем.
		m.logger.Warn("member record missing, re-registering", "node_id", nodeID)
		err = m.store.UpsertMember(ctx, domain.Member{
			NodeID:     nodeID,
			Group:      m.group,
			Host:       m.host,
			JoinedAt:   now,
			LastSeenAt: now,
		})
	}
	telemetry.RecordHeartbeat(err)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}

	m.announce(ctx, domain.MemberHeartbeat)
	return nil
}

// observe учитывает событие соседа.
func (m *Manager) observe(ev domain.MemberEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Type == domain.MemberLeft {
		delete(m.peers, ev.NodeID)
		return
	}
	m.peers[ev.NodeID] = ev
}

func (m *Manager) announce(ctx context.Context, typ domain.MemberEventType) {
	m.mu.Lock()
	nodeID := m.nodeID
	m.mu.Unlock()
	m.announceFor(ctx, nodeID, typ)
}

func (m *Manager) announceFor(ctx context.Context, nodeID uuid.UUID, typ domain.MemberEventType) {
	if m.announcer == nil {
		return
	}

	event := domain.MemberEvent{
		Type:   typ,
		Group:  m.group,
		NodeID: nodeID,
		Host:   m.host,
		At:     time.Now().UTC(),
	}
	if err := m.announcer.PublishMemberEvent(ctx, event); err != nil {
		m.logger.Warn("failed to announce member event", "type", typ, "error", err)
	}
}

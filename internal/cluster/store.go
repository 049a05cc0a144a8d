package cluster

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/google/uuid"
)

// Store — реестр групп и участников.
//
// Реализации: repo.ClusterRepo (PostgreSQL) и MemoryStore.
type Store interface {
	EnsureGroup(ctx context.Context, name string, passphraseHash []byte) (domain.Group, error)
	UpsertMember(ctx context.Context, m domain.Member) error
	TouchMember(ctx context.Context, group string, nodeID uuid.UUID, at time.Time) (bool, error)
	DeleteMember(ctx context.Context, group string, nodeID uuid.UUID) error
	ListMembers(ctx context.Context, group string) ([]domain.Member, error)
}

// MemoryStore — Store в памяти процесса.
// Подходит для одного процесса и для тестов.
type MemoryStore struct {
	mu      sync.Mutex
	groups  map[string]domain.Group
	members map[string]map[uuid.UUID]domain.Member
}

// NewMemoryStore создаёт пустой MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:  make(map[string]domain.Group),
		members: make(map[string]map[uuid.UUID]domain.Member),
	}
}

// EnsureGroup создаёт группу, если её нет.
func (s *MemoryStore) EnsureGroup(_ context.Context, name string, passphraseHash []byte) (domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.groups[name]; ok {
		return g, nil
	}
	g := domain.Group{
		Name:           name,
		PassphraseHash: append([]byte(nil), passphraseHash...),
		CreatedAt:      time.Now(),
	}
	s.groups[name] = g
	return g, nil
}

// UpsertMember добавляет или обновляет участника.
func (s *MemoryStore) UpsertMember(_ context.Context, m domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.members[m.Group]
	if !ok {
		group = make(map[uuid.UUID]domain.Member)
		s.members[m.Group] = group
	}
	if existing, ok := group[m.NodeID]; ok {
		m.JoinedAt = existing.JoinedAt
	}
	group[m.NodeID] = m
	return nil
}

// TouchMember обновляет last_seen_at.
func (s *MemoryStore) TouchMember(_ context.Context, group string, nodeID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[group][nodeID]
	if !ok {
		return false, nil
	}
	m.LastSeenAt = at
	s.members[group][nodeID] = m
	return true, nil
}

// DeleteMember удаляет участника.
func (s *MemoryStore) DeleteMember(_ context.Context, group string, nodeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[group], nodeID)
	return nil
}

// ListMembers возвращает участников группы, старшие первыми.
func (s *MemoryStore) ListMembers(_ context.Context, group string) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]domain.Member, 0, len(s.members[group]))
	for _, m := range s.members[group] {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].NodeID.String() < members[j].NodeID.String()
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	return members, nil
}

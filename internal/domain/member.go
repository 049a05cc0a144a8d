package domain

import (
	"time"

	"github.com/google/uuid"
)

// Group — кластерная группа.
//
// Группа создаётся первым вступившим узлом. Пароль хранится
// только в виде bcrypt-хэша.
type Group struct {
	// Name — уникальное имя группы.
	Name string `json:"name"`

	// PassphraseHash — bcrypt-хэш пароля группы.
	PassphraseHash []byte `json:"-"`

	// CreatedAt — время создания группы.
	CreatedAt time.Time `json:"created_at"`
}

// Member — участник кластерной группы (один runtime).
type Member struct {
	// NodeID — идентификатор runtime.
	NodeID uuid.UUID `json:"node_id"`

	// Group — имя группы.
	Group string `json:"group"`

	// Host — имя хоста, на котором запущен runtime.
	Host string `json:"host,omitempty"`

	// JoinedAt — время вступления в группу.
	JoinedAt time.Time `json:"joined_at"`

	// LastSeenAt — время последнего heartbeat.
	LastSeenAt time.Time `json:"last_seen_at"`
}

// IsStale возвращает true, если heartbeat не приходил дольше ttl.
func (m *Member) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(m.LastSeenAt) > ttl
}

// MemberEvent — событие изменения состава группы.
type MemberEvent struct {
	Type   MemberEventType `json:"type"`
	Group  string          `json:"group"`
	NodeID uuid.UUID       `json:"node_id"`
	Host   string          `json:"host,omitempty"`
	At     time.Time       `json:"at"`
}

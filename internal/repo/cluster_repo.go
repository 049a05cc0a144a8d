package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — таблицы кластерного реестра.
const schema = `
CREATE TABLE IF NOT EXISTS cluster_groups (
	name            TEXT PRIMARY KEY,
	passphrase_hash BYTEA NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cluster_members (
	group_name   TEXT NOT NULL REFERENCES cluster_groups(name) ON DELETE CASCADE,
	node_id      UUID NOT NULL,
	host         TEXT,
	joined_at    TIMESTAMPTZ NOT NULL,
	last_seen_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (group_name, node_id)
);
`

// ClusterRepo — репозиторий групп и участников кластера.
type ClusterRepo struct {
	pool *pgxpool.Pool
}

// NewClusterRepo создаёт новый ClusterRepo.
func NewClusterRepo(pool *pgxpool.Pool) *ClusterRepo {
	return &ClusterRepo{pool: pool}
}

// EnsureSchema создаёт таблицы, если их нет.
func (r *ClusterRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// EnsureGroup создаёт группу, если её нет, и возвращает сохранённую запись.
// Если группа уже существует, passphraseHash игнорируется.
func (r *ClusterRepo) EnsureGroup(ctx context.Context, name string, passphraseHash []byte) (domain.Group, error) {
	insert := `
		INSERT INTO cluster_groups (name, passphrase_hash, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, insert, name, passphraseHash); err != nil {
		return domain.Group{}, fmt.Errorf("insert group: %w", err)
	}

	query := `SELECT name, passphrase_hash, created_at FROM cluster_groups WHERE name = $1`

	var g domain.Group
	err := r.pool.QueryRow(ctx, query, name).Scan(&g.Name, &g.PassphraseHash, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Group{}, ErrNotFound
		}
		return domain.Group{}, fmt.Errorf("select group: %w", err)
	}
	return g, nil
}

// UpsertMember добавляет участника или обновляет существующего.
func (r *ClusterRepo) UpsertMember(ctx context.Context, m domain.Member) error {
	query := `
		INSERT INTO cluster_members (group_name, node_id, host, joined_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_name, node_id)
		DO UPDATE SET host = EXCLUDED.host, last_seen_at = EXCLUDED.last_seen_at
	`
	_, err := r.pool.Exec(ctx, query, m.Group, m.NodeID, nullString(m.Host), m.JoinedAt, m.LastSeenAt)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

// TouchMember обновляет last_seen_at участника.
// Возвращает false, если участник не найден.
func (r *ClusterRepo) TouchMember(ctx context.Context, group string, nodeID uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE cluster_members SET last_seen_at = $3 WHERE group_name = $1 AND node_id = $2`

	tag, err := r.pool.Exec(ctx, query, group, nodeID, at)
	if err != nil {
		return false, fmt.Errorf("touch member: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteMember удаляет участника из группы.
func (r *ClusterRepo) DeleteMember(ctx context.Context, group string, nodeID uuid.UUID) error {
	query := `DELETE FROM cluster_members WHERE group_name = $1 AND node_id = $2`

	if _, err := r.pool.Exec(ctx, query, group, nodeID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// ListMembers возвращает участников группы, старшие первыми.
func (r *ClusterRepo) ListMembers(ctx context.Context, group string) ([]domain.Member, error) {
	query := `
		SELECT group_name, node_id, COALESCE(host, ''), joined_at, last_seen_at
		FROM cluster_members
		WHERE group_name = $1
		ORDER BY joined_at, node_id
	`
	rows, err := r.pool.Query(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.Group, &m.NodeID, &m.Host, &m.JoinedAt, &m.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Deployment — запись о unit, развёрнутом на runtime.
type Deployment struct {
	// ID — идентификатор деплоя.
	ID string `json:"id"`

	// RuntimeID — идентификатор runtime, на котором развёрнут unit.
	RuntimeID uuid.UUID `json:"runtime_id"`

	// Unit — имя unit.
	Unit string `json:"unit"`

	// Status — текущий статус.
	Status DeploymentStatus `json:"status"`

	// DeployedAt — время успешного Start.
	DeployedAt time.Time `json:"deployed_at"`

	// UndeployedAt — время остановки. Nil, пока unit работает.
	UndeployedAt *time.Time `json:"undeployed_at,omitempty"`

	// Error — текст ошибки остановки.
	Error string `json:"error,omitempty"`
}

// MarkUndeployed переводит деплой в UNDEPLOYED.
func (d *Deployment) MarkUndeployed() {
	now := time.Now()
	d.Status = DeploymentStatusUndeployed
	d.UndeployedAt = &now
}

// MarkFailed переводит деплой в FAILED с ошибкой.
func (d *Deployment) MarkFailed(err string) {
	now := time.Now()
	d.Status = DeploymentStatusFailed
	d.UndeployedAt = &now
	d.Error = err
}

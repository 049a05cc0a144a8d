package domain

// DeploymentStatus — статус деплоя unit на runtime.
//
// Жизненный цикл:
//
//	DEPLOYED → UNDEPLOYED
//	         ↘ FAILED (Stop завершился ошибкой)
type DeploymentStatus string

const (
	// DeploymentStatusDeployed — unit запущен и работает.
	DeploymentStatusDeployed DeploymentStatus = "DEPLOYED"

	// DeploymentStatusUndeployed — unit остановлен штатно.
	DeploymentStatusUndeployed DeploymentStatus = "UNDEPLOYED"

	// DeploymentStatusFailed — остановка unit завершилась ошибкой.
	DeploymentStatusFailed DeploymentStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s DeploymentStatus) IsTerminal() bool {
	switch s {
	case DeploymentStatusUndeployed, DeploymentStatusFailed:
		return true
	default:
		return false
	}
}

// MemberEventType — тип события участника кластера.
type MemberEventType string

const (
	// MemberJoined — узел вошёл в группу.
	MemberJoined MemberEventType = "member.joined"

	// MemberLeft — узел покинул группу.
	MemberLeft MemberEventType = "member.left"

	// MemberHeartbeat — узел подтвердил, что жив.
	MemberHeartbeat MemberEventType = "member.heartbeat"
)

package platform

import "errors"

// Ошибки runtime.
var (
	// ErrRuntimeClosed — runtime закрыт, операции недоступны.
	ErrRuntimeClosed = errors.New("runtime closed")

	// ErrDeploymentNotFound — деплой с таким ID не найден.
	ErrDeploymentNotFound = errors.New("deployment not found")

	// ErrNoClusterManager — кластерный runtime запрошен без ClusterManager.
	ErrNoClusterManager = errors.New("cluster manager is required for clustered runtime")
)

package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrRuntimeAcquisition — не удалось получить runtime.
	ErrRuntimeAcquisition = errors.New("runtime acquisition failed")

	// ErrDeployment — не удалось развернуть unit.
	ErrDeployment = errors.New("deployment failed")

	// ErrUnexpected — паника при запуске.
	ErrUnexpected = errors.New("unexpected startup failure")

	// ErrReadyTimeout — unit не сообщил о готовности за Config.ReadyTimeout.
	ErrReadyTimeout = errors.New("unit did not become ready in time")
)

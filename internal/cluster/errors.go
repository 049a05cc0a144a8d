package cluster

import "errors"

// Ошибки кластерного менеджера.
var (
	// ErrMissingCredentials — не задано имя или пароль группы.
	ErrMissingCredentials = errors.New("cluster group name and passphrase are required")

	// ErrInvalidPassphrase — пароль не совпадает с паролем группы.
	ErrInvalidPassphrase = errors.New("invalid cluster group passphrase")

	// ErrAlreadyJoined — менеджер уже состоит в группе.
	ErrAlreadyJoined = errors.New("already joined cluster group")

	// ErrNotJoined — менеджер не состоит в группе.
	ErrNotJoined = errors.New("not joined cluster group")
)

package verticle

import "errors"

var (
	// ErrListen — не удалось открыть сокет.
	ErrListen = errors.New("listen failed")

	// ErrAlreadyStarted — unit уже запущен.
	ErrAlreadyStarted = errors.New("verticle already started")
)

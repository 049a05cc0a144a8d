package mq

import "errors"

var (
	// ErrNotConnected — нет открытого канала (соединение восстанавливается).
	ErrNotConnected = errors.New("amqp: not connected")

	// ErrConnectionClosed — соединение закрыто через Close.
	ErrConnectionClosed = errors.New("amqp: connection closed")
)

// Package future реализует одноразовый асинхронный результат.
//
// Future переходит из PENDING ровно один раз — в SUCCEEDED или FAILED.
// Первое решение выигрывает, последующие Resolve/Reject игнорируются.
//
//	PENDING → SUCCEEDED
//	        ↘ FAILED
package future

import (
	"context"
	"sync"
)

// Status — состояние Future.
type Status string

const (
	// StatusPending — результат ещё не известен.
	StatusPending Status = "PENDING"

	// StatusSucceeded — Future разрешён значением.
	StatusSucceeded Status = "SUCCEEDED"

	// StatusFailed — Future отклонён ошибкой.
	StatusFailed Status = "FAILED"
)

// IsTerminal возвращает true для финальных состояний.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Future — результат, который устанавливается не более одного раза.
// Безопасен для конкурентного использования.
type Future[T any] struct {
	mu        sync.Mutex
	status    Status
	value     T
	err       error
	done      chan struct{}
	callbacks []func(T, error)
}

// New создаёт Future в состоянии PENDING.
func New[T any]() *Future[T] {
	return &Future[T]{
		status: StatusPending,
		done:   make(chan struct{}),
	}
}

// Resolve разрешает Future значением.
// Возвращает false, если Future уже завершён.
func (f *Future[T]) Resolve(value T) bool {
	return f.settle(StatusSucceeded, value, nil)
}

// Reject отклоняет Future ошибкой.
// Возвращает false, если Future уже завершён.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(StatusFailed, zero, err)
}

func (f *Future[T]) settle(status Status, value T, err error) bool {
	f.mu.Lock()
	if f.status.IsTerminal() {
		f.mu.Unlock()
		return false
	}
	f.status = status
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	// Колбэки вызываются вне блокировки: они могут обращаться к Future.
	for _, cb := range callbacks {
		cb(value, err)
	}
	return true
}

// Done возвращает канал, закрывающийся при завершении Future.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Status возвращает текущее состояние.
func (f *Future[T]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Result возвращает значение и ошибку.
// ok=false, пока Future не завершён.
func (f *Future[T]) Result() (value T, err error, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.status.IsTerminal() {
		return value, nil, false
	}
	return f.value, f.err, true
}

// Await блокируется до завершения Future или отмены ctx.
// Отмена ctx не влияет на сам Future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		value, err, _ := f.Result()
		return value, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete регистрирует колбэк на завершение.
// Если Future уже завершён, колбэк вызывается сразу в текущей горутине.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	f.mu.Lock()
	if !f.status.IsTerminal() {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()

	cb(value, err)
}

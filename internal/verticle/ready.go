package verticle

import "sync"

// ReadySignal — одноразовый сигнал готовности unit.
// Срабатывает не более одного раза; ожидающий может подписаться
// до или после срабатывания.
type ReadySignal struct {
	once sync.Once
	done chan struct{}
}

// NewReadySignal создаёт незажжённый сигнал.
func NewReadySignal() *ReadySignal {
	return &ReadySignal{done: make(chan struct{})}
}

// Fire зажигает сигнал. Возвращает true только для первого вызова.
func (s *ReadySignal) Fire() bool {
	first := false
	s.once.Do(func() {
		close(s.done)
		first = true
	})
	return first
}

// Done закрывается при срабатывании сигнала.
func (s *ReadySignal) Done() <-chan struct{} {
	return s.done
}

// Fired сообщает, сработал ли сигнал.
func (s *ReadySignal) Fired() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

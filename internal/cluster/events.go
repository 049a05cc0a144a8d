package cluster

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/cybernetics/kovert/internal/mq"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventListener слушает события группы из очереди узла.
type EventListener struct {
	self     uuid.UUID
	logger   *slog.Logger
	onEvent  func(domain.MemberEvent)
	consumer *mq.Consumer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEventListener создаёт слушателя событий группы для узла nodeID.
// onEvent вызывается для событий других узлов.
func NewEventListener(conn *mq.Connection, group string, nodeID uuid.UUID, logger *slog.Logger, onEvent func(domain.MemberEvent)) *EventListener {
	l := &EventListener{
		self:    nodeID,
		logger:  logger,
		onEvent: onEvent,
	}

	if conn != nil {
		l.consumer = mq.NewConsumer(conn, logger, mq.ConsumerConfig{
			Queue:    string(mq.NodeQueue(group, nodeID.String())),
			Tag:      "kovert-" + nodeID.String(),
			Handler:  l.handle,
			Prefetch: 10,
			Declare: func(ch *amqp.Channel) error {
				return mq.DeclareNodeQueue(ch, group, nodeID.String())
			},
		})
	}
	return l
}

// Start запускает потребление в отдельной горутине.
func (l *EventListener) Start() {
	if l.consumer == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("cluster event consumer error", "error", err)
		}
	}()
}

// Stop останавливает потребление и ждёт завершения горутины.
func (l *EventListener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.consumer != nil {
		l.consumer.Stop()
	}
	l.wg.Wait()
}

// handle обрабатывает одно событие. Некорректные события отбрасываются.
func (l *EventListener) handle(_ context.Context, d *mq.Delivery) error {
	ev, err := mq.ParsePayload[domain.MemberEvent](&d.Message)
	if err != nil {
		l.logger.Warn("dropping malformed cluster event", "message_id", d.Message.ID, "error", err)
		return nil
	}
	if ev.NodeID == l.self {
		return nil
	}

	l.logger.Debug("cluster event",
		"type", ev.Type,
		"node_id", ev.NodeID,
		"host", ev.Host,
	)
	if l.onEvent != nil {
		l.onEvent(ev)
	}
	return nil
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// defaultRetryDelay — пауза перед повторной настройкой потребления,
// если соединение живо, но consume не удался.
const defaultRetryDelay = 2 * time.Second

// Handler — функция обработки сообщения.
// Возвращает error, если обработка не удалась (сообщение будет nack).
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	// Message — распарсенное сообщение.
	Message Message

	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery
}

// Consumer потребляет сообщения из очереди RabbitMQ.
type Consumer struct {
	conn       *Connection
	logger     *slog.Logger
	queue      string
	tag        string
	handler    Handler
	prefetch   int
	requeue    bool
	retryDelay time.Duration
	declare    func(ch *amqp.Channel) error

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue string

	// Tag — consumer tag (по умолчанию генерирует брокер).
	Tag string

	// Handler — обработчик сообщений.
	Handler Handler

	// Prefetch — количество сообщений для предварительной загрузки.
	Prefetch int

	// RequeueOnError — возвращать сообщение в очередь при ошибке обработчика.
	// Иначе сообщение отбрасывается.
	RequeueOnError bool

	// RetryDelay — пауза между попытками настроить потребление (default: 2s).
	RetryDelay time.Duration

	// Declare — объявление очереди перед каждым запуском потребления
	// (нужно для эксклюзивных очередей, живущих с соединением).
	Declare func(ch *amqp.Channel) error
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:       conn,
		logger:     logger.With("queue", cfg.Queue),
		queue:      cfg.Queue,
		tag:        cfg.Tag,
		handler:    cfg.Handler,
		prefetch:   prefetch,
		requeue:    cfg.RequeueOnError,
		retryDelay: retryDelay,
		declare:    cfg.Declare,
	}
}

// Start потребляет сообщения до отмены ctx, Stop или Close соединения.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer cancel()

	for {
		// Подписываемся до setupConsume, чтобы не пропустить reconnect.
		reconnected := c.conn.Reconnected()

		deliveries, err := c.setupConsume()
		if err == nil {
			c.logger.Info("consumer started")
			err = c.processDeliveries(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries stopped, waiting for connection", "error", err)
		} else {
			c.logger.Error("failed to setup consume", "error", err)
		}

		if err := c.wait(ctx, reconnected); err != nil {
			return err
		}
	}
}

// wait ждёт переподключения, а если соединение живо — RetryDelay.
func (c *Consumer) wait(ctx context.Context, reconnected <-chan struct{}) error {
	var retry <-chan time.Time
	if c.conn.IsConnected() {
		timer := time.NewTimer(c.retryDelay)
		defer timer.Stop()
		retry = timer.C
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.conn.Done():
		return ErrConnectionClosed
	case <-reconnected:
		c.logger.Info("reconnected, restarting consumer")
	case <-retry:
	}
	return nil
}

// setupConsume объявляет очередь (если нужно) и начинает потребление.
func (c *Consumer) setupConsume() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNotConnected
	}

	if c.declare != nil {
		if err := c.declare(ch); err != nil {
			return nil, err
		}
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		c.tag,   // consumer tag
		false,   // auto-ack (ack вручную)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// processDeliveries обрабатывает сообщения до закрытия канала доставки.
func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}
			c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery обрабатывает одно сообщение.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Warn("dropping undecodable message", "error", err, "size", len(raw.Body))
		raw.Nack(false, false)
		return
	}

	c.logger.Debug("received message", "message_id", msg.ID, "type", msg.Type)

	if err := c.handler(ctx, &Delivery{Message: msg, Raw: raw}); err != nil {
		c.logger.Error("handler failed",
			"message_id", msg.ID,
			"type", msg.Type,
			"requeue", c.requeue,
			"error", err,
		)
		raw.Nack(false, c.requeue)
		return
	}

	raw.Ack(false)
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// ParsePayload декодирует payload сообщения в T.
// После json.Unmarshal в Message payload — это map, поэтому он
// перекодируется через JSON.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	payloadBytes, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(payloadBytes, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}

	return result, nil
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cybernetics/kovert/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в шине.
type MessageType string

// Типы сообщений.
const (
	MessageTypeMemberJoined    MessageType = MessageType(domain.MemberJoined)
	MessageTypeMemberLeft      MessageType = MessageType(domain.MemberLeft)
	MessageTypeMemberHeartbeat MessageType = MessageType(domain.MemberHeartbeat)
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMemberEventMessage оборачивает событие участника в Message.
func NewMemberEventMessage(event domain.MemberEvent) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      MessageType(event.Type),
		Payload:   event,
		Timestamp: event.At,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				MessageId:   msg.ID,
				Timestamp:   msg.Timestamp,
				Body:        body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishMemberEvent публикует событие участника группы.
// Потребители: все узлы группы.
func (p *Publisher) PublishMemberEvent(ctx context.Context, event domain.MemberEvent) error {
	msg := NewMemberEventMessage(event)
	return p.Publish(ctx, ExchangeCluster, GroupRoutingKey(event.Group, msg.Type), msg)
}

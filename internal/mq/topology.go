package mq

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeCluster — обменник кластерных событий.
const ExchangeCluster Exchange = "kovert.cluster"

// SetupTopology объявляет обменник кластерных событий.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, declareExchange)
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeCluster), // name
		"topic",                 // type
		true,                    // durable
		false,                   // auto-deleted
		false,                   // internal
		false,                   // no-wait
		nil,                     // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeCluster, err)
	}
	return nil
}

// GroupRoutingKey строит ключ маршрутизации события группы.
// Точки в имени группы заменяются, чтобы не ломать topic-сопоставление.
func GroupRoutingKey(group string, msgType MessageType) RoutingKey {
	return RoutingKey(sanitizeGroup(group) + "." + string(msgType))
}

// GroupBindingKey — ключ привязки для всех событий группы.
func GroupBindingKey(group string) RoutingKey {
	return RoutingKey(sanitizeGroup(group) + ".#")
}

// NodeQueue — имя эксклюзивной очереди узла.
func NodeQueue(group, nodeID string) Queue {
	return Queue(string(ExchangeCluster) + "." + sanitizeGroup(group) + "." + nodeID)
}

// DeclareNodeQueue объявляет очередь узла и привязывает её к событиям группы.
// Очередь эксклюзивна и удаляется вместе с соединением.
func DeclareNodeQueue(ch *amqp.Channel, group, nodeID string) error {
	if err := declareExchange(ch); err != nil {
		return err
	}

	queue := NodeQueue(group, nodeID)
	_, err := ch.QueueDeclare(
		string(queue), // name
		false,         // durable
		true,          // delete when unused
		true,          // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	key := GroupBindingKey(group)
	if err := ch.QueueBind(string(queue), string(key), string(ExchangeCluster), false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", queue, ExchangeCluster, err)
	}
	return nil
}

func sanitizeGroup(group string) string {
	return strings.NewReplacer(".", "_", "*", "_", "#", "_", " ", "_").Replace(strings.TrimSpace(group))
}

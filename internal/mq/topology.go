package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Обменники.
const (
	// ExchangeLifecycle — topic-обменник событий lifecycle.
	ExchangeLifecycle Exchange = "slicer.lifecycle"

	// ExchangeDLQ — сообщения, которые consumer не смог разобрать.
	ExchangeDLQ Exchange = "slicer.lifecycle.dlq"
)

// Очереди.
const (
	// QueueEvents — все события lifecycle, читает `slicerun events`.
	QueueEvents Queue = "slicer.lifecycle.events"

	// QueueDLQ — dead letter очередь для QueueEvents.
	QueueDLQ Queue = "slicer.lifecycle.dlq"
)

// Routing keys. Совпадают с MessageType события.
const (
	RoutingKeyRunStarted   RoutingKey = "run.started"
	RoutingKeyStepFinished RoutingKey = "step.finished"
	RoutingKeyRunFinished  RoutingKey = "run.finished"

	// RoutingKeyAll — шаблон topic, под который попадают все события.
	RoutingKeyAll RoutingKey = "#"
)

// SetupTopology объявляет обменники и очереди. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []struct {
			name Exchange
			kind string
		}{
			{ExchangeLifecycle, amqp.ExchangeTopic},
			{ExchangeDLQ, amqp.ExchangeFanout},
		} {
			if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		queues := []struct {
			name Queue
			args amqp.Table
		}{
			{QueueEvents, amqp.Table{"x-dead-letter-exchange": string(ExchangeDLQ)}},
			{QueueDLQ, nil},
		}
		for _, q := range queues {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		bindings := []struct {
			queue    Queue
			key      RoutingKey
			exchange Exchange
		}{
			{QueueEvents, RoutingKeyAll, ExchangeLifecycle},
			{QueueDLQ, "", ExchangeDLQ},
		}
		for _, b := range bindings {
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

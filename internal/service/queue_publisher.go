// Package service holds outbound integrations used by the handlers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/tourflow/tourflow/internal/metrics"
	"github.com/tourflow/tourflow/internal/queue"
)

// InvitationPublisher announces new tour invitations.
type InvitationPublisher interface {
	PublishInvitationCreated(ctx context.Context, ev queue.InvitationCreatedEvent) error
}

// AMQPPublisher publishes to RabbitMQ, dialing per message. Invitations are
// rare enough that a pooled connection is not worth its reconnect logic.
type AMQPPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPPublisher{url: url, log: log.Named("publisher")}
}

// PublishInvitationCreated sends ev to the durable invitation.created queue
// as a persistent message. Errors are logged and returned; callers usually
// ignore them.
func (p *AMQPPublisher) PublishInvitationCreated(ctx context.Context, ev queue.InvitationCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.publish(ctx, queue.InvitationQueue, body)
	metrics.ObservePublish(queue.InvitationQueue, err)
	if err != nil {
		p.log.Warn("publish failed", zap.String("queue", queue.InvitationQueue), zap.Error(err))
	}
	return err
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishInvitationCreated(context.Context, queue.InvitationCreatedEvent) error {
	return nil
}

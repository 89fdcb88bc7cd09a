package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventLeadIngested = "lead.ingested"
	EventLeadMoved    = "lead.moved"
	EventLeadAssigned = "lead.assigned"
)

// LeadEvent is published after a lead write succeeds. The type doubles as the
// routing key.
type LeadEvent struct {
	Type          string    `json:"type"`
	LeadID        string    `json:"lead_id"`
	PipelineID    string    `json:"pipeline_id"`
	StageID       string    `json:"stage_id,omitempty"`
	AssigneeID    string    `json:"assignee_id,omitempty"`
	AssigneeEmail string    `json:"assignee_email,omitempty"`
	AssigneeName  string    `json:"assignee_name,omitempty"`
	Title         string    `json:"title"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type QueueProducerInterface interface {
	PublishLeadEvent(ctx context.Context, event LeadEvent) error
}

// channel is the part of *amqp.Channel the producer needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, event LeadEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		event.Type,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// NoopProducer drops events. Used when no broker is configured.
type NoopProducer struct{}

func (NoopProducer) PublishLeadEvent(context.Context, LeadEvent) error {
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AssignmentNotifier tells a user a lead was assigned to them.
type AssignmentNotifier interface {
	SendAssignment(to, name, leadTitle, leadURL string) error
}

// Worker drains the lead events queue. A nil Notifier acknowledges
// assignment events without sending mail.
type Worker struct {
	Channel  *amqp.Channel
	Notifier AssignmentNotifier
	SiteURL  string
}

func NewWorker(ch *amqp.Channel, notifier AssignmentNotifier, siteURL string) *Worker {
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		SiteURL:  siteURL,
	}
}

// Start consumes queueName until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] worker waiting on queue '%s'", queueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var event LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		log.Printf("❌ [WORKER] invalid JSON: %s", err)
		d.Nack(false, false)
		return
	}

	if err := w.process(ctx, event); err != nil {
		log.Printf("❌ [WORKER] %s %s: %s", event.Type, event.LeadID, err)
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

func (w *Worker) process(_ context.Context, event LeadEvent) error {
	switch event.Type {
	case EventLeadAssigned:
		if w.Notifier == nil {
			log.Printf("⚠️ [WORKER] mail disabled, lead %s assignment not notified", event.LeadID)
			return nil
		}
		if event.AssigneeEmail == "" {
			log.Printf("⚠️ [WORKER] lead %s assigned to %s without email, skipping", event.LeadID, event.AssigneeID)
			return nil
		}
		leadURL := fmt.Sprintf("%s/pipelines/%s?lead=%s", w.SiteURL, event.PipelineID, event.LeadID)
		if err := w.Notifier.SendAssignment(event.AssigneeEmail, event.AssigneeName, event.Title, leadURL); err != nil {
			return err
		}
		log.Printf("✅ [WORKER] notified %s about lead %s", event.AssigneeEmail, event.LeadID)
		return nil
	default:
		// Other events only feed external consumers bound to the exchange.
		return nil
	}
}

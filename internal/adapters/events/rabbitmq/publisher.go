package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	journalPostedQueue    = "ledger.journal.posted"
	invoiceGeneratedQueue = "ledger.invoice.generated"
)

// Publisher emits outbound integration events onto durable RabbitMQ
// queues. Messages are persistent; a broker restart does not lose them.
type Publisher struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

var _ portssvc.EventPublisher = (*Publisher)(nil)

// NewPublisher dials the broker, opens a channel and declares the
// outbound queues.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p := &Publisher{conn: conn, chn: chn}
	for _, queue := range []string{journalPostedQueue, invoiceGeneratedQueue} {
		if _, err := chn.QueueDeclare(
			queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}
	return p, nil
}

func (p *Publisher) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", queue, err)
	}
	return p.chn.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// PublishJournalPosted emits a journal.posted message after a
// successful post, for external notification and audit collaborators.
func (p *Publisher) PublishJournalPosted(ctx context.Context, journal *domain.Journal) error {
	return p.publish(ctx, journalPostedQueue, journal)
}

// PublishInvoiceGenerated emits an invoice.generated message for
// downstream billing collaborators.
func (p *Publisher) PublishInvoiceGenerated(ctx context.Context, invoice *domain.Invoice) error {
	return p.publish(ctx, invoiceGeneratedQueue, invoice)
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if err := p.chn.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

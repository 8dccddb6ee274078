package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

type EventMeta struct {
	CorrelationID string
	CausationID   string
	PartitionKey  string
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, meta EventMeta, o *order.Order) error
	Close() error
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitPublisher struct {
	ch       channel
	seqRepo  SequenceRepository
	producer string
	timeout  time.Duration
}

type PublisherOptions struct {
	Producer string
	Timeout  time.Duration
}

func NewRabbitPublisher(conn *amqp.Connection, seqRepo SequenceRepository, opts PublisherOptions) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newRabbitPublisher(ch, seqRepo, opts), nil
}

func newRabbitPublisher(ch channel, seqRepo SequenceRepository, opts PublisherOptions) *RabbitPublisher {
	producer := opts.Producer
	if producer == "" {
		producer = StorefrontProducer
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RabbitPublisher{ch: ch, seqRepo: seqRepo, producer: producer, timeout: timeout}
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, meta EventMeta, o *order.Order) error {
	partition := meta.PartitionKey
	if partition == "" {
		partition = o.SessionID
	}

	seq, err := p.seqRepo.NextSequence(ctx, partition)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := BuildOrderPlacedEvent(o, EnvelopeOptions{
		PartitionKey:  partition,
		Sequence:      seq,
		Producer:      p.producer,
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
	})
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}

	return p.publishJSON(ctx, OrderPlacedRoutingKey, env.EventID, body)
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(ctx context.Context, meta EventMeta, o *order.Order) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

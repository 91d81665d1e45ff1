// Package notify announces persisted listings on a RabbitMQ topic exchange.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"bds_scrooper/models"
)

// ListingEvent is the message body published for each persisted listing.
type ListingEvent struct {
	EventID   uuid.UUID      `json:"event_id"`
	Type      string         `json:"type"`
	Listing   models.Listing `json:"listing"`
	Published time.Time      `json:"published_at"`
}

const (
	EventListingCreated = "listing.created"
	EventListingUpdated = "listing.updated"
)

func RoutingKey(platform string) string {
	return "listings." + platform
}

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger.With("component", "notify"),
	}, nil
}

// PublishListing sends a created or updated event for l.
func (p *Publisher) PublishListing(ctx context.Context, l models.Listing, isNew bool) error {
	event := NewListingEvent(l, isNew, time.Now())
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.conn.IsClosed() {
		return fmt.Errorf("amqp: connection closed")
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(l.SourcePlatform), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID.String(),
		Timestamp:    event.Published,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", l.ID, err)
	}
	return nil
}

func NewListingEvent(l models.Listing, isNew bool, at time.Time) ListingEvent {
	kind := EventListingUpdated
	if isNew {
		kind = EventListingCreated
	}
	return ListingEvent{EventID: uuid.New(), Type: kind, Listing: l, Published: at.UTC()}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the API.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// Event is the envelope written to every transport.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// New stamps an event of type typ keyed by key.
func New(typ, key string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// OrderCreatedPayload is published once an order and its items are stored.
type OrderCreatedPayload struct {
	OrderID       string          `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ItemCount     int             `json:"itemCount"`
}

// OrderStatusChangedPayload is published after a status change commits.
type OrderStatusChangedPayload struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	From          string `json:"from"`
	To            string `json:"to"`
	StockDeducted bool   `json:"stockDeducted"`
}

// Publisher delivers events to a downstream transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error { return nil }

// MultiPublisher fans an event out to every configured publisher.
type MultiPublisher struct {
	publishers []Publisher
}

func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Publish tries every publisher and joins their errors.
func (m *MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of fan-out targets.
func (m *MultiPublisher) Len() int {
	return len(m.publishers)
}

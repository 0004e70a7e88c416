// Package events defines the versioned envelope and payloads published to the
// broker by the API and consumed by the worker.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderCreated       = "OrderCreated"
	TypeOrderStatusChanged = "OrderStatusChanged"
	TypePaymentReceived    = "PaymentReceived"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// New wraps a payload in a v1 envelope correlated to an order.
func New(eventType, producer, traceID, orderID string, payload json.RawMessage) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       payload,
	}
}

type OrderItemQty struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id,omitempty"`
	Items      []OrderItemQty `json:"items"`
	TotalCents int64          `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type PaymentReceivedPayload struct {
	OrderID     string `json:"order_id"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

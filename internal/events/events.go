// Package events defines the domain events written to the outbox and read
// back by the notification subscriber.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated        Type = "order.created"
	OrderStatusChanged  Type = "order.status_changed"
	ReturnRequested     Type = "return.requested"
	ReturnStatusChanged Type = "return.status_changed"
)

type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func New(t Type, at time.Time, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return Envelope{ID: uuid.New(), Type: t, OccurredAt: at.UTC(), Payload: raw}, nil
}

func (e Envelope) Decode(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	OrderNumber string   `json:"order_number"`
	Status      string   `json:"status"`
	TotalAmount string   `json:"total_amount"`
	Customer    Customer `json:"customer"`
}

type Line struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type OrderCreatedPayload struct {
	Order       Order    `json:"order"`
	Items       []Line   `json:"items"`
	AdminEmails []string `json:"admin_emails"`
}

type OrderStatusChangedPayload struct {
	Order     Order  `json:"order"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

type Return struct {
	ReturnNumber string   `json:"return_number"`
	OrderNumber  string   `json:"order_number"`
	Status       string   `json:"status"`
	RefundAmount string   `json:"refund_amount"`
	RefundMethod string   `json:"refund_method,omitempty"`
	AdminNotes   string   `json:"admin_notes,omitempty"`
	Customer     Customer `json:"customer"`
}

type ReturnRequestedPayload struct {
	Return      Return   `json:"return"`
	Reason      string   `json:"reason"`
	AdminEmails []string `json:"admin_emails"`
}

type ReturnStatusChangedPayload struct {
	Return    Return `json:"return"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

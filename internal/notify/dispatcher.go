// Package notify turns domain events read from the broker into emails.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/events"
	"github.com/bagstore/storefront/internal/mailer"
	"github.com/bagstore/storefront/internal/metrics"
)

const currency = "MAD"

type Dispatcher struct {
	mailer mailer.Service
	logger *zap.Logger
}

func NewDispatcher(m mailer.Service, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: m, logger: logger.With(zap.String("component", "notify"))}
}

// Handle decodes one broker message and sends the emails it implies.
// Unknown event types are skipped.
func (d *Dispatcher) Handle(ctx context.Context, value []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	emails, err := d.compose(env)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		d.logger.Debug("no notification for event", zap.String("type", string(env.Type)), zap.Stringer("event_id", env.ID))
		return nil
	}

	var errs []error
	for _, email := range emails {
		if len(email.To) == 0 {
			continue
		}
		if err := d.mailer.Send(ctx, email); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.NotificationsSentTotal.WithLabelValues(string(env.Type)).Inc()
		d.logger.Info("notification sent",
			zap.String("type", string(env.Type)),
			zap.Strings("to", email.To),
			zap.String("subject", email.Subject))
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) compose(env events.Envelope) ([]mailer.Email, error) {
	switch env.Type {
	case events.OrderCreated:
		var p events.OrderCreatedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		return []mailer.Email{newOrderEmail(p)}, nil
	case events.OrderStatusChanged:
		var p events.OrderStatusChangedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		return []mailer.Email{orderStatusEmail(p)}, nil
	case events.ReturnRequested:
		var p events.ReturnRequestedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		return returnRequestedEmails(p), nil
	case events.ReturnStatusChanged:
		var p events.ReturnStatusChangedPayload
		if err := env.Decode(&p); err != nil {
			return nil, err
		}
		return []mailer.Email{returnStatusEmail(p)}, nil
	default:
		return nil, nil
	}
}

func recipients(email string) []string {
	if email == "" {
		return nil
	}
	return []string{email}
}

func newOrderEmail(p events.OrderCreatedPayload) mailer.Email {
	var b strings.Builder
	b.WriteString("Hello Admin,\n\n")
	b.WriteString("A new order has been placed on your store.\n\n")
	fmt.Fprintf(&b, "Order Number: %s\n", p.Order.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s <%s>\n", p.Order.Customer.Name, p.Order.Customer.Email)
	fmt.Fprintf(&b, "Status: %s\n\n", p.Order.Status)
	b.WriteString("Order Items:\n")
	for _, line := range p.Items {
		fmt.Fprintf(&b, "  %d x %s  %s %s\n", line.Quantity, line.ProductName, line.Subtotal, currency)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s\n", p.Order.TotalAmount, currency)

	return mailer.Email{
		To:      p.AdminEmails,
		Subject: "New Order " + p.Order.OrderNumber,
		Body:    b.String(),
	}
}

func orderStatusEmail(p events.OrderStatusChangedPayload) mailer.Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", p.Order.Customer.Name)
	fmt.Fprintf(&b, "The status of your order %s changed from %s to %s.\n", p.Order.OrderNumber, p.OldStatus, p.NewStatus)
	fmt.Fprintf(&b, "Order total: %s %s\n", p.Order.TotalAmount, currency)

	return mailer.Email{
		To:      recipients(p.Order.Customer.Email),
		Subject: fmt.Sprintf("Order %s is now %s", p.Order.OrderNumber, p.NewStatus),
		Body:    b.String(),
	}
}

func returnRequestedEmails(p events.ReturnRequestedPayload) []mailer.Email {
	r := p.Return

	var customer strings.Builder
	fmt.Fprintf(&customer, "Hello %s,\n\n", r.Customer.Name)
	fmt.Fprintf(&customer, "We received your return request %s for order %s.\n", r.ReturnNumber, r.OrderNumber)
	fmt.Fprintf(&customer, "Expected refund: %s %s\n", r.RefundAmount, currency)
	customer.WriteString("We will let you know once it has been reviewed.\n")

	var admin strings.Builder
	admin.WriteString("Hello Admin,\n\n")
	fmt.Fprintf(&admin, "Return %s was requested for order %s.\n", r.ReturnNumber, r.OrderNumber)
	fmt.Fprintf(&admin, "Customer: %s <%s>\n", r.Customer.Name, r.Customer.Email)
	fmt.Fprintf(&admin, "Reason: %s\n", p.Reason)
	fmt.Fprintf(&admin, "Refund amount: %s %s\n", r.RefundAmount, currency)

	return []mailer.Email{
		{
			To:      recipients(r.Customer.Email),
			Subject: "Return request " + r.ReturnNumber + " received",
			Body:    customer.String(),
		},
		{
			To:      p.AdminEmails,
			Subject: "New return request " + r.ReturnNumber,
			Body:    admin.String(),
		},
	}
}

func returnStatusEmail(p events.ReturnStatusChangedPayload) mailer.Email {
	r := p.Return

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", r.Customer.Name)
	fmt.Fprintf(&b, "Your return %s for order %s is now %s.\n", r.ReturnNumber, r.OrderNumber, p.NewStatus)
	if r.RefundMethod != "" {
		fmt.Fprintf(&b, "Refund: %s %s via %s\n", r.RefundAmount, currency, r.RefundMethod)
	}
	if r.AdminNotes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", r.AdminNotes)
	}

	return mailer.Email{
		To:      recipients(r.Customer.Email),
		Subject: fmt.Sprintf("Return %s is now %s", r.ReturnNumber, p.NewStatus),
		Body:    b.String(),
	}
}

package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
)

type ActivityAction string

const (
	ActionStatusChanged    ActivityAction = "status_changed"
	ActionRevenueCollected ActivityAction = "revenue_collected"
	ActionReturnApproved   ActivityAction = "return_approved"
	ActionReturnRejected   ActivityAction = "return_rejected"
	ActionReturnProcessing ActivityAction = "return_processing"
	ActionReturnCompleted  ActivityAction = "return_completed"
)

const (
	EntityOrder  = "order"
	EntityReturn = "order_return"
)

// ActivityPayload is the typed metadata of one audit entry. The concrete
// type is determined by the entry's action.
type ActivityPayload interface {
	Action() ActivityAction
}

type StatusChanged struct {
	OrderNumber  string `json:"order_number"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	OrderTotal   string `json:"order_total"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

type RevenueCollected struct {
	OrderNumber  string `json:"order_number"`
	Amount       string `json:"amount"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

type ReturnApprovedPayload struct {
	ReturnNumber string `json:"return_number"`
	OrderNumber  string `json:"order_number"`
	RefundAmount string `json:"refund_amount"`
	RefundMethod string `json:"refund_method"`
}

type ReturnRejectedPayload struct {
	ReturnNumber string `json:"return_number"`
	OrderNumber  string `json:"order_number"`
	Reason       string `json:"reason"`
}

type ReturnProcessingPayload struct {
	ReturnNumber string `json:"return_number"`
	OrderNumber  string `json:"order_number"`
}

type ReturnCompletedPayload struct {
	ReturnNumber string `json:"return_number"`
	OrderNumber  string `json:"order_number"`
	RefundAmount string `json:"refund_amount"`
}

func (StatusChanged) Action() ActivityAction           { return ActionStatusChanged }
func (RevenueCollected) Action() ActivityAction        { return ActionRevenueCollected }
func (ReturnApprovedPayload) Action() ActivityAction   { return ActionReturnApproved }
func (ReturnRejectedPayload) Action() ActivityAction   { return ActionReturnRejected }
func (ReturnProcessingPayload) Action() ActivityAction { return ActionReturnProcessing }
func (ReturnCompletedPayload) Action() ActivityAction  { return ActionReturnCompleted }

type Activity struct {
	EntityType  string
	EntityID    int64
	Description string
	Payload     ActivityPayload
}

// DecodePayload turns stored metadata back into the variant for action.
func DecodePayload(action ActivityAction, raw json.RawMessage) (ActivityPayload, error) {
	var p ActivityPayload
	switch action {
	case ActionStatusChanged:
		p = &StatusChanged{}
	case ActionRevenueCollected:
		p = &RevenueCollected{}
	case ActionReturnApproved:
		p = &ReturnApprovedPayload{}
	case ActionReturnRejected:
		p = &ReturnRejectedPayload{}
	case ActionReturnProcessing:
		p = &ReturnProcessingPayload{}
	case ActionReturnCompleted:
		p = &ReturnCompletedPayload{}
	default:
		return nil, fmt.Errorf("unknown activity action %q", action)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", action, err)
	}
	return p, nil
}

func (s *Service) recordActivity(ctx context.Context, tx db.Tx, actor Actor, a Activity) error {
	meta, err := json.Marshal(a.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s metadata: %w", a.Payload.Action(), err)
	}

	row := &repository.AdminActivity{
		AdminID:     actor.ID,
		Action:      string(a.Payload.Action()),
		EntityType:  a.EntityType,
		EntityID:    a.EntityID,
		Description: a.Description,
		Metadata:    meta,
		IPAddress:   optional(actor.IP),
		UserAgent:   optional(actor.UserAgent),
		CreatedAt:   s.timeNow().UTC(),
	}
	if err := s.repos.Activities.CreateTx(ctx, tx, row); err != nil {
		return fmt.Errorf("failed to record %s activity: %w", row.Action, err)
	}
	return nil
}

func activityView(row *repository.AdminActivity) (ActivityView, error) {
	payload, err := DecodePayload(ActivityAction(row.Action), row.Metadata)
	if err != nil {
		return ActivityView{}, err
	}
	return ActivityView{
		ID:          row.ID,
		AdminID:     row.AdminID,
		Action:      ActivityAction(row.Action),
		EntityType:  row.EntityType,
		EntityID:    row.EntityID,
		Description: row.Description,
		Payload:     payload,
		IPAddress:   row.IPAddress,
		UserAgent:   row.UserAgent,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

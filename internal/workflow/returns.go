package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/apperr"
	"github.com/bagstore/storefront/internal/blob"
	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/events"
	"github.com/bagstore/storefront/internal/metrics"
	"github.com/bagstore/storefront/internal/repository"
)

const (
	MaxReturnImages     = 5
	MaxReturnImageBytes = 2 << 20
	MinDescriptionLen   = 10
	MaxDescriptionLen   = 1000
	MaxAdminNotesLen    = 1000
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
}

func validateReturnInput(in CreateReturnInput) (ReturnReason, error) {
	fields := map[string]string{}

	reason, ok := ParseReturnReason(in.Reason)
	if !ok {
		fields["reason"] = "is invalid"
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(in.Description)); n < MinDescriptionLen || n > MaxDescriptionLen {
		fields["description"] = fmt.Sprintf("must be between %d and %d characters", MinDescriptionLen, MaxDescriptionLen)
	}
	if len(in.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, it := range in.Items {
		if it.OrderItemID <= 0 {
			fields[fmt.Sprintf("items.%d.order_item_id", i)] = "is required"
		}
		if it.Quantity < 1 {
			fields[fmt.Sprintf("items.%d.quantity", i)] = "must be at least 1"
		}
	}
	if len(in.Images) > MaxReturnImages {
		fields["images"] = fmt.Sprintf("may not have more than %d items", MaxReturnImages)
	}
	for i, img := range in.Images {
		if _, ok := allowedImageTypes[strings.ToLower(img.ContentType)]; !ok {
			fields[fmt.Sprintf("images.%d", i)] = "must be a jpeg or png image"
		} else if img.Size > MaxReturnImageBytes {
			fields[fmt.Sprintf("images.%d", i)] = "may not be greater than 2048 kilobytes"
		}
	}

	if len(fields) > 0 {
		return "", apperr.InvalidErr("The given data was invalid.", fields)
	}
	return reason, nil
}

func validateNotes(notes string, required bool) error {
	n := utf8.RuneCountInString(strings.TrimSpace(notes))
	switch {
	case required && n == 0:
		return apperr.InvalidErr("The given data was invalid.", map[string]string{"admin_notes": "is required"})
	case n > MaxAdminNotesLen:
		return apperr.InvalidErr("The given data was invalid.", map[string]string{
			"admin_notes": fmt.Sprintf("may not be greater than %d characters", MaxAdminNotesLen),
		})
	}
	return nil
}

// mergeReturnItems sums quantities of repeated order items, keeping the
// first non-empty condition.
func mergeReturnItems(in []ReturnItemInput) []ReturnItemInput {
	idx := make(map[int64]int, len(in))
	out := make([]ReturnItemInput, 0, len(in))
	for _, it := range in {
		if i, ok := idx[it.OrderItemID]; ok {
			out[i].Quantity += it.Quantity
			if out[i].Condition == "" {
				out[i].Condition = it.Condition
			}
			continue
		}
		idx[it.OrderItemID] = len(out)
		out = append(out, it)
	}
	return out
}

// CreateReturn files a pending return for a delivered order of the actor.
// Evidence images are stored first and removed again if the transaction
// does not commit.
func (s *Service) CreateReturn(ctx context.Context, actor Actor, in CreateReturnInput) (*ReturnView, error) {
	reason, err := validateReturnInput(in)
	if err != nil {
		return nil, err
	}
	requested := mergeReturnItems(in.Items)

	keys, err := s.storeImages(ctx, in.Images)
	if err != nil {
		return nil, err
	}

	var (
		ret   *repository.OrderReturn
		order *repository.Order
	)
	err = s.inTx(ctx, "create_return", func(tx db.Tx) error {
		ret, order = nil, nil

		o, err := s.repos.Orders.GetByNumberForUpdateTx(ctx, tx, in.OrderNumber)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if o.UserID != actor.ID {
			return ErrOrderNotFound
		}

		now := s.timeNow().UTC()
		if el := CheckEligibility(o, now, s.cfg.LegacyReturnWindow); !el.Eligible {
			return notEligibleErr(el.Reason)
		}

		orderItems, err := s.repos.OrderItems.ListByOrderIDTx(ctx, tx, o.ID)
		if err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}
		byID := make(map[int64]*repository.OrderItem, len(orderItems))
		for _, it := range orderItems {
			byID[it.ID] = it
		}
		claimed, err := s.repos.Returns.ClaimedQuantitiesTx(ctx, tx, o.ID)
		if err != nil {
			return fmt.Errorf("failed to load returned quantities: %w", err)
		}

		total := decimal.Zero
		rows := make([]*repository.OrderReturnItem, 0, len(requested))
		fields := map[string]string{}
		for _, req := range requested {
			it, ok := byID[req.OrderItemID]
			if !ok {
				fields[fmt.Sprintf("item_%d", req.OrderItemID)] = "does not belong to this order"
				continue
			}
			if left := it.Quantity - claimed[it.ID]; req.Quantity > left {
				fields[fmt.Sprintf("item_%d", req.OrderItemID)] = fmt.Sprintf("at most %d can be returned", max(left, 0))
				continue
			}
			refund := it.ProductPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
			total = total.Add(refund)
			rows = append(rows, &repository.OrderReturnItem{
				OrderItemID:   it.ID,
				Quantity:      req.Quantity,
				RefundAmount:  refund,
				ItemCondition: optional(strings.TrimSpace(req.Condition)),
				CreatedAt:     now,
			})
		}
		if len(fields) > 0 {
			return apperr.InvalidErr("Some return items are invalid.", fields).WithCode("invalid_items")
		}

		number, err := s.nextNumber(ctx, tx, ReturnNumberPrefix, now)
		if err != nil {
			return err
		}

		r := &repository.OrderReturn{
			OrderID:      o.ID,
			UserID:       actor.ID,
			ReturnNumber: number,
			Status:       string(ReturnPending),
			Reason:       string(reason),
			Description:  strings.TrimSpace(in.Description),
			RefundAmount: total,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repos.Returns.CreateTx(ctx, tx, r); err != nil {
			return fmt.Errorf("failed to insert return: %w", err)
		}
		for _, row := range rows {
			row.OrderReturnID = r.ID
			if err := s.repos.Returns.CreateItemTx(ctx, tx, row); err != nil {
				return fmt.Errorf("failed to insert return item: %w", err)
			}
		}
		for _, key := range keys {
			img := &repository.OrderReturnImage{OrderReturnID: r.ID, ImagePath: key, CreatedAt: now}
			if err := s.repos.Returns.CreateImageTx(ctx, tx, img); err != nil {
				return fmt.Errorf("failed to insert return image: %w", err)
			}
		}

		if err := s.repos.Orders.SetHasReturnTx(ctx, tx, o.ID, true, now); err != nil {
			return fmt.Errorf("failed to flag order: %w", err)
		}

		customer, err := s.customer(ctx, actor.ID)
		if err != nil {
			return err
		}
		admins, err := s.adminEmails(ctx)
		if err != nil {
			return err
		}

		ret, order = r, o
		return s.enqueue(ctx, tx, events.ReturnRequested, events.ReturnRequestedPayload{
			Return:      returnSnapshot(r, o, customer),
			Reason:      string(reason),
			AdminEmails: admins,
		})
	})
	if err != nil {
		s.discardImages(ctx, keys)
		return nil, err
	}

	s.cache.Invalidate(ctx, order.OrderNumber)
	metrics.ReturnsRequestedTotal.Inc()
	s.logger.Info("return requested",
		zap.String("return_number", ret.ReturnNumber),
		zap.String("order_number", order.OrderNumber),
		zap.String("refund_amount", money(ret.RefundAmount)))

	return s.loadReturnView(ctx, ret, order)
}

func (s *Service) storeImages(ctx context.Context, images []ImageUpload) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, apperr.Wrap(errors.New("evidence storage is not configured"))
	}

	keys := make([]string, 0, len(images))
	for _, img := range images {
		res, err := s.blobs.Put(ctx, img.Body, blob.PutInput{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Size:        img.Size,
		})
		if err != nil {
			s.discardImages(ctx, keys)
			return nil, apperr.Wrap(fmt.Errorf("failed to store evidence image: %w", err))
		}
		keys = append(keys, res.Key)
	}
	return keys, nil
}

func (s *Service) discardImages(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete orphaned evidence image", zap.String("key", key), zap.Error(err))
		}
	}
}

type returnChange struct {
	operation string
	action    string
	from      []ReturnStatus
	to        ReturnStatus
	// apply mutates the locked rows and returns the audit entry, if any.
	apply func(ctx context.Context, tx db.Tx, r *repository.OrderReturn, o *repository.Order) (ActivityPayload, string, error)
}

// changeReturn locks the return row, checks its current status and applies
// one transition together with its audit entry and outbox event.
func (s *Service) changeReturn(ctx context.Context, actor Actor, number string, ch returnChange) (*ReturnView, error) {
	var (
		ret   *repository.OrderReturn
		order *repository.Order
		old   ReturnStatus
	)
	err := s.inTx(ctx, ch.operation, func(tx db.Tx) error {
		ret, order = nil, nil

		r, err := s.repos.Returns.GetByNumberForUpdateTx(ctx, tx, number)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return ErrReturnNotFound
			}
			return fmt.Errorf("failed to lock return: %w", err)
		}
		if !actor.IsAdmin() && r.UserID != actor.ID {
			return ErrReturnNotFound
		}

		old = ReturnStatus(r.Status)
		allowed := false
		for _, st := range ch.from {
			if st == old {
				allowed = true
			}
		}
		if !allowed {
			return returnStateErr(ch.action, old)
		}

		o, err := s.repos.Orders.GetByIDForUpdateTx(ctx, tx, r.OrderID)
		if err != nil {
			return fmt.Errorf("failed to lock order %d: %w", r.OrderID, err)
		}

		r.Status = string(ch.to)
		r.UpdatedAt = s.timeNow().UTC()
		payload, description, err := ch.apply(ctx, tx, r, o)
		if err != nil {
			return err
		}
		if err := s.repos.Returns.UpdateStatusTx(ctx, tx, r); err != nil {
			return fmt.Errorf("failed to update return: %w", err)
		}

		if payload != nil {
			err := s.recordActivity(ctx, tx, actor, Activity{
				EntityType:  EntityReturn,
				EntityID:    r.ID,
				Description: description,
				Payload:     payload,
			})
			if err != nil {
				return err
			}
		}

		customer, err := s.customer(ctx, r.UserID)
		if err != nil {
			return err
		}

		ret, order = r, o
		return s.enqueue(ctx, tx, events.ReturnStatusChanged, events.ReturnStatusChangedPayload{
			Return:    returnSnapshot(r, o, customer),
			OldStatus: string(old),
			NewStatus: string(ch.to),
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, order.OrderNumber)
	metrics.ReturnTransitionsTotal.WithLabelValues(string(ch.to)).Inc()
	s.logger.Info("return status changed",
		zap.String("return_number", number),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(ch.to)),
		zap.Int64("actor_id", actor.ID))

	return s.loadReturnView(ctx, ret, order)
}

func (s *Service) ApproveReturn(ctx context.Context, actor Actor, number string, in ApproveInput) (*ReturnView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	method, ok := ParseRefundMethod(in.RefundMethod)
	if !ok {
		return nil, apperr.InvalidErr("The given data was invalid.", map[string]string{"refund_method": "is invalid"})
	}
	if err := validateNotes(in.Notes, false); err != nil {
		return nil, err
	}

	return s.changeReturn(ctx, actor, number, returnChange{
		operation: "approve_return",
		action:    "approve",
		from:      []ReturnStatus{ReturnPending},
		to:        ReturnApproved,
		apply: func(_ context.Context, _ db.Tx, r *repository.OrderReturn, o *repository.Order) (ActivityPayload, string, error) {
			now := r.UpdatedAt
			m := string(method)
			r.RefundMethod = &m
			r.ProcessedByAdminID = &actor.ID
			r.ApprovedAt = &now
			if notes := strings.TrimSpace(in.Notes); notes != "" {
				r.AdminNotes = &notes
			}
			return ReturnApprovedPayload{
				ReturnNumber: r.ReturnNumber,
				OrderNumber:  o.OrderNumber,
				RefundAmount: money(r.RefundAmount),
				RefundMethod: m,
			}, fmt.Sprintf("Approved return %s for order %s", r.ReturnNumber, o.OrderNumber), nil
		},
	})
}

func (s *Service) RejectReturn(ctx context.Context, actor Actor, number, notes string) (*ReturnView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateNotes(notes, true); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)

	return s.changeReturn(ctx, actor, number, returnChange{
		operation: "reject_return",
		action:    "reject",
		from:      []ReturnStatus{ReturnPending},
		to:        ReturnRejected,
		apply: func(ctx context.Context, tx db.Tx, r *repository.OrderReturn, o *repository.Order) (ActivityPayload, string, error) {
			now := r.UpdatedAt
			r.ProcessedByAdminID = &actor.ID
			r.RejectedAt = &now
			r.AdminNotes = &notes
			if err := s.repos.Orders.SetHasReturnTx(ctx, tx, o.ID, false, now); err != nil {
				return nil, "", fmt.Errorf("failed to clear return flag: %w", err)
			}
			o.HasReturn = false
			return ReturnRejectedPayload{
				ReturnNumber: r.ReturnNumber,
				OrderNumber:  o.OrderNumber,
				Reason:       notes,
			}, fmt.Sprintf("Rejected return %s for order %s", r.ReturnNumber, o.OrderNumber), nil
		},
	})
}

// MarkReturnProcessing records that the returned goods have arrived and are
// being inspected.
func (s *Service) MarkReturnProcessing(ctx context.Context, actor Actor, number, notes string) (*ReturnView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateNotes(notes, false); err != nil {
		return nil, err
	}

	return s.changeReturn(ctx, actor, number, returnChange{
		operation: "process_return",
		action:    "process",
		from:      []ReturnStatus{ReturnApproved},
		to:        ReturnProcessing,
		apply: func(_ context.Context, _ db.Tx, r *repository.OrderReturn, o *repository.Order) (ActivityPayload, string, error) {
			r.ProcessedByAdminID = &actor.ID
			r.AdminNotes = appendNotes(r.AdminNotes, notes)
			return ReturnProcessingPayload{
				ReturnNumber: r.ReturnNumber,
				OrderNumber:  o.OrderNumber,
			}, fmt.Sprintf("Started processing return %s for order %s", r.ReturnNumber, o.OrderNumber), nil
		},
	})
}

// CompleteReturn closes an approved or processing return and puts the
// returned quantities back into stock.
func (s *Service) CompleteReturn(ctx context.Context, actor Actor, number, notes string) (*ReturnView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validateNotes(notes, false); err != nil {
		return nil, err
	}

	return s.changeReturn(ctx, actor, number, returnChange{
		operation: "complete_return",
		action:    "complete",
		from:      []ReturnStatus{ReturnApproved, ReturnProcessing},
		to:        ReturnCompleted,
		apply: func(ctx context.Context, tx db.Tx, r *repository.OrderReturn, o *repository.Order) (ActivityPayload, string, error) {
			now := r.UpdatedAt
			r.ProcessedByAdminID = &actor.ID
			r.CompletedAt = &now
			r.AdminNotes = appendNotes(r.AdminNotes, notes)

			lines, err := s.repos.Returns.RestockLinesTx(ctx, tx, r.ID)
			if err != nil {
				return nil, "", fmt.Errorf("failed to load return lines: %w", err)
			}
			for _, l := range lines {
				if err := s.repos.Products.IncrementStockTx(ctx, tx, l.ProductID, l.Quantity); err != nil {
					return nil, "", fmt.Errorf("failed to restock product %d: %w", l.ProductID, err)
				}
			}
			return ReturnCompletedPayload{
				ReturnNumber: r.ReturnNumber,
				OrderNumber:  o.OrderNumber,
				RefundAmount: money(r.RefundAmount),
			}, fmt.Sprintf("Completed return %s, refunded %s", r.ReturnNumber, money(r.RefundAmount)), nil
		},
	})
}

// CancelReturn lets the customer withdraw a pending return. It is not an
// admin action and writes no audit entry.
func (s *Service) CancelReturn(ctx context.Context, actor Actor, number string) (*ReturnView, error) {
	customer := actor
	customer.Role = RoleCustomer

	return s.changeReturn(ctx, customer, number, returnChange{
		operation: "cancel_return",
		action:    "cancel",
		from:      []ReturnStatus{ReturnPending},
		to:        ReturnCancelled,
		apply: func(ctx context.Context, tx db.Tx, r *repository.OrderReturn, o *repository.Order) (ActivityPayload, string, error) {
			if err := s.repos.Orders.SetHasReturnTx(ctx, tx, o.ID, false, r.UpdatedAt); err != nil {
				return nil, "", fmt.Errorf("failed to clear return flag: %w", err)
			}
			o.HasReturn = false
			return nil, "", nil
		},
	})
}

// CustomerReturn returns the return if it belongs to userID.
func (s *Service) CustomerReturn(ctx context.Context, userID int64, number string) (*ReturnView, error) {
	r, err := s.repos.Returns.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, apperr.Wrap(err)
	}
	if r.UserID != userID {
		return nil, ErrReturnNotFound
	}
	o, err := s.repos.Orders.GetByID(ctx, r.OrderID)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to load order %d: %w", r.OrderID, err))
	}
	return s.loadReturnView(ctx, r, o)
}

func (s *Service) loadReturnView(ctx context.Context, r *repository.OrderReturn, o *repository.Order) (*ReturnView, error) {
	lines, err := s.repos.Returns.LinesByReturnID(ctx, r.ID)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to load return items: %w", err))
	}
	images, err := s.repos.Returns.ImagesByReturnID(ctx, r.ID)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to load return images: %w", err))
	}

	v := &ReturnView{
		ID:           r.ID,
		ReturnNumber: r.ReturnNumber,
		OrderNumber:  o.OrderNumber,
		Status:       ReturnStatus(r.Status),
		Reason:       ReturnReason(r.Reason),
		Description:  r.Description,
		RefundAmount: money(r.RefundAmount),
		RefundMethod: r.RefundMethod,
		AdminNotes:   r.AdminNotes,
		ApprovedAt:   r.ApprovedAt,
		RejectedAt:   r.RejectedAt,
		CompletedAt:  r.CompletedAt,
		CreatedAt:    r.CreatedAt,
		Items:        make([]ReturnItemView, len(lines)),
		Images:       make([]string, len(images)),
	}
	for i, l := range lines {
		v.Items[i] = ReturnItemView{
			OrderItemID:   l.OrderItemID,
			ProductID:     l.ProductID,
			ProductName:   l.ProductName,
			Quantity:      l.Quantity,
			RefundAmount:  money(l.RefundAmount),
			ItemCondition: l.ItemCondition,
		}
	}
	for i, img := range images {
		v.Images[i] = img.ImagePath
	}
	return v, nil
}

func appendNotes(existing *string, notes string) *string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return &notes
	}
	joined := *existing + "\n" + notes
	return &joined
}

func returnSnapshot(r *repository.OrderReturn, o *repository.Order, c events.Customer) events.Return {
	ev := events.Return{
		ReturnNumber: r.ReturnNumber,
		OrderNumber:  o.OrderNumber,
		Status:       r.Status,
		RefundAmount: money(r.RefundAmount),
		Customer:     c,
	}
	if r.RefundMethod != nil {
		ev.RefundMethod = *r.RefundMethod
	}
	if r.AdminNotes != nil {
		ev.AdminNotes = *r.AdminNotes
	}
	return ev
}

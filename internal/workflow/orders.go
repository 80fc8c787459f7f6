package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bagstore/storefront/internal/apperr"
	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/events"
	"github.com/bagstore/storefront/internal/metrics"
	"github.com/bagstore/storefront/internal/repository"
)

func validateShipping(in ShippingInfo) error {
	fields := map[string]string{}
	check := func(field, value string, max int, required bool) {
		n := utf8.RuneCountInString(strings.TrimSpace(value))
		switch {
		case required && n == 0:
			fields[field] = "is required"
		case n > max:
			fields[field] = fmt.Sprintf("may not be greater than %d characters", max)
		}
	}
	check("shipping_address", in.Address, 500, true)
	check("shipping_city", in.City, 100, true)
	check("shipping_phone", in.Phone, 20, true)
	check("notes", in.Notes, 1000, false)

	if len(fields) > 0 {
		return apperr.InvalidErr("The given data was invalid.", fields)
	}
	return nil
}

// CreateOrderFromCart turns the user's cart into a pending order. Products
// are locked in ascending id order and every line is checked before any
// stock is touched, so a short line leaves the catalog untouched.
func (s *Service) CreateOrderFromCart(ctx context.Context, userID int64, in ShippingInfo) (*OrderView, error) {
	if err := validateShipping(in); err != nil {
		return nil, err
	}

	var (
		order *repository.Order
		items []*repository.OrderItem
	)
	err := s.inTx(ctx, "create_order", func(tx db.Tx) error {
		order, items = nil, nil

		lines, err := s.repos.Carts.LinesTx(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		requested := make(map[int64]int, len(lines))
		for _, l := range lines {
			requested[l.ProductID] += l.Quantity
		}
		ids := make([]int64, 0, len(requested))
		for id := range requested {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := s.repos.Products.LockForUpdateTx(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}
		products := make(map[int64]*repository.Product, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}

		var short []StockShortage
		for _, id := range ids {
			p, ok := products[id]
			switch {
			case !ok:
				short = append(short, StockShortage{ProductID: id, Requested: requested[id], Inactive: true})
			case !p.IsActive:
				short = append(short, StockShortage{ProductID: id, Name: p.Name, Requested: requested[id], Inactive: true})
			case p.StockQuantity < requested[id]:
				short = append(short, StockShortage{ProductID: id, Name: p.Name, Requested: requested[id], Available: p.StockQuantity})
			}
		}
		if len(short) > 0 {
			return outOfStockErr(short)
		}

		now := s.timeNow().UTC()
		total := decimal.Zero
		for _, l := range lines {
			p := products[l.ProductID]
			subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(subtotal)
			items = append(items, &repository.OrderItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductPrice: p.Price,
				Quantity:     l.Quantity,
				Subtotal:     subtotal,
				CreatedAt:    now,
			})
		}

		number, err := s.nextNumber(ctx, tx, OrderNumberPrefix, now)
		if err != nil {
			return err
		}

		order = &repository.Order{
			UserID:          userID,
			OrderNumber:     number,
			Status:          string(OrderPending),
			TotalAmount:     total,
			ShippingAddress: strings.TrimSpace(in.Address),
			ShippingCity:    strings.TrimSpace(in.City),
			ShippingPhone:   strings.TrimSpace(in.Phone),
			Notes:           optional(strings.TrimSpace(in.Notes)),
			IsReturnable:    true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repos.Orders.CreateTx(ctx, tx, order); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, it := range items {
			it.OrderID = order.ID
			if err := s.repos.OrderItems.CreateTx(ctx, tx, it); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		for _, id := range ids {
			ok, err := s.repos.Products.DecrementStockTx(ctx, tx, id, requested[id])
			if err != nil {
				return fmt.Errorf("failed to decrement stock of product %d: %w", id, err)
			}
			if !ok {
				p := products[id]
				return outOfStockErr([]StockShortage{{ProductID: id, Name: p.Name, Requested: requested[id], Available: p.StockQuantity}})
			}
		}

		if err := s.repos.Carts.ClearTx(ctx, tx, userID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		customer, err := s.customer(ctx, userID)
		if err != nil {
			return err
		}
		admins, err := s.adminEmails(ctx)
		if err != nil {
			return err
		}
		payload := events.OrderCreatedPayload{
			Order:       orderSnapshot(order, customer),
			Items:       make([]events.Line, len(items)),
			AdminEmails: admins,
		}
		for i, it := range items {
			payload.Items[i] = events.Line{ProductName: it.ProductName, Quantity: it.Quantity, Subtotal: money(it.Subtotal)}
		}
		return s.enqueue(ctx, tx, events.OrderCreated, payload)
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	s.logger.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", userID),
		zap.String("total", money(order.TotalAmount)))

	return buildOrderView(order, items), nil
}

// TransitionStatus moves an order to status on behalf of an admin. The
// order row stays locked from the read of the current status until commit.
func (s *Service) TransitionStatus(ctx context.Context, actor Actor, orderNumber, status string) (*OrderView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	target, ok := ParseOrderStatus(status)
	if !ok {
		return nil, ErrUnknownStatus
	}

	var (
		order         *repository.Order
		old           OrderStatus
		firstDelivery bool
	)
	err := s.inTx(ctx, "transition_status", func(tx db.Tx) error {
		o, err := s.repos.Orders.GetByNumberForUpdateTx(ctx, tx, orderNumber)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		old = OrderStatus(o.Status)
		if old == target {
			return ErrAlreadyInStatus
		}
		if !s.cfg.Policy.Allows(old, target) {
			return forbiddenTransitionErr(old, target)
		}

		now := s.timeNow().UTC()
		if err := s.repos.Orders.UpdateStatusTx(ctx, tx, o.ID, string(target), actor.ID, now); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		o.Status = string(target)
		o.UpdatedByAdminID = &actor.ID
		o.StatusChangedAt = &now
		o.UpdatedAt = now

		customer, err := s.customer(ctx, o.UserID)
		if err != nil {
			return err
		}

		// Revenue is attributed on the first delivery only; the deadline
		// marks an order that was delivered before.
		firstDelivery = target == OrderDelivered && o.ReturnDeadline == nil
		if firstDelivery {
			err := s.recordActivity(ctx, tx, actor, Activity{
				EntityType:  EntityOrder,
				EntityID:    o.ID,
				Description: fmt.Sprintf("Revenue collected: %s from order %s", money(o.TotalAmount), o.OrderNumber),
				Payload: RevenueCollected{
					OrderNumber:  o.OrderNumber,
					Amount:       money(o.TotalAmount),
					CustomerID:   customer.ID,
					CustomerName: customer.Name,
				},
			})
			if err != nil {
				return err
			}

			deadline := now.Add(s.cfg.ReturnWindow)
			if err := s.repos.Orders.SetReturnDeadlineTx(ctx, tx, o.ID, deadline); err != nil {
				return fmt.Errorf("failed to set return deadline: %w", err)
			}
			o.ReturnDeadline = &deadline
		}

		err = s.recordActivity(ctx, tx, actor, Activity{
			EntityType:  EntityOrder,
			EntityID:    o.ID,
			Description: fmt.Sprintf("Changed order %s status from %s to %s", o.OrderNumber, old, target),
			Payload: StatusChanged{
				OrderNumber:  o.OrderNumber,
				OldStatus:    string(old),
				NewStatus:    string(target),
				OrderTotal:   money(o.TotalAmount),
				CustomerID:   customer.ID,
				CustomerName: customer.Name,
			},
		})
		if err != nil {
			return err
		}

		order = o
		return s.enqueue(ctx, tx, events.OrderStatusChanged, events.OrderStatusChangedPayload{
			Order:     orderSnapshot(o, customer),
			OldStatus: string(old),
			NewStatus: string(target),
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, orderNumber)
	metrics.OrderTransitionsTotal.WithLabelValues(string(target)).Inc()
	if firstDelivery {
		metrics.RevenueCollectedTotal.Add(order.TotalAmount.InexactFloat64())
	}
	s.logger.Info("order status changed",
		zap.String("order_number", orderNumber),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(target)),
		zap.Int64("admin_id", actor.ID))

	return s.loadOrderView(ctx, order)
}

// CustomerOrder returns the order if it belongs to userID.
func (s *Service) CustomerOrder(ctx context.Context, userID int64, orderNumber string) (*OrderView, error) {
	v, ticket, ok := s.cache.Get(ctx, orderNumber)
	if ok {
		if v.UserID != userID {
			return nil, ErrOrderNotFound
		}
		return v, nil
	}

	o, err := s.ownedOrder(ctx, userID, orderNumber)
	if err != nil {
		return nil, err
	}
	v, err = s.loadOrderView(ctx, o)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, v, ticket)
	return v, nil
}

func (s *Service) ReturnEligibility(ctx context.Context, userID int64, orderNumber string) (Eligibility, error) {
	o, err := s.ownedOrder(ctx, userID, orderNumber)
	if err != nil {
		return Eligibility{}, err
	}
	return CheckEligibility(o, s.timeNow().UTC(), s.cfg.LegacyReturnWindow), nil
}

// OrderActivity lists the audit entries of one order, oldest first.
func (s *Service) OrderActivity(ctx context.Context, actor Actor, orderNumber string) ([]ActivityView, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	o, err := s.repos.Orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.Wrap(err)
	}
	rows, err := s.repos.Activities.ListByEntity(ctx, EntityOrder, o.ID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return activityViews(rows)
}

func (s *Service) ownedOrder(ctx context.Context, userID int64, orderNumber string) (*repository.Order, error) {
	o, err := s.repos.Orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, apperr.Wrap(err)
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) loadOrderView(ctx context.Context, o *repository.Order) (*OrderView, error) {
	items, err := s.repos.OrderItems.ListByOrderID(ctx, o.ID)
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("failed to load order items: %w", err))
	}
	return buildOrderView(o, items), nil
}

func buildOrderView(o *repository.Order, items []*repository.OrderItem) *OrderView {
	v := &OrderView{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          OrderStatus(o.Status),
		TotalAmount:     money(o.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		ShippingCity:    o.ShippingCity,
		ShippingPhone:   o.ShippingPhone,
		Notes:           o.Notes,
		IsReturnable:    o.IsReturnable,
		HasReturn:       o.HasReturn,
		ReturnDeadline:  o.ReturnDeadline,
		StatusChangedAt: o.StatusChangedAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           make([]OrderItemView, len(items)),
	}
	for i, it := range items {
		v.Items[i] = OrderItemView{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductPrice: money(it.ProductPrice),
			Quantity:     it.Quantity,
			Subtotal:     money(it.Subtotal),
		}
	}
	return v
}

func orderSnapshot(o *repository.Order, c events.Customer) events.Order {
	return events.Order{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: money(o.TotalAmount),
		Customer:    c,
	}
}

func activityViews(rows []*repository.AdminActivity) ([]ActivityView, error) {
	out := make([]ActivityView, 0, len(rows))
	for _, row := range rows {
		v, err := activityView(row)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		out = append(out, v)
	}
	return out, nil
}

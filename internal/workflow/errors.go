package workflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bagstore/storefront/internal/apperr"
)

var (
	ErrAdminOnly         = apperr.ForbiddenErr("This action requires an administrator.").WithCode("admin_only")
	ErrOrderNotFound     = apperr.NotFoundErr("Order not found.").WithCode("order_not_found")
	ErrReturnNotFound    = apperr.NotFoundErr("Return request not found.").WithCode("return_not_found")
	ErrProductNotFound   = apperr.NotFoundErr("Product not found.").WithCode("product_not_found")
	ErrUnknownStatus     = apperr.InvalidErr("Unknown order status.", nil).WithCode("unknown_status")
	ErrAlreadyInStatus   = apperr.ConflictErr("Order is already in this status.").WithCode("same_status")
	ErrCartEmpty         = apperr.InvalidErr("Cart is empty.", nil).WithCode("cart_empty")
	ErrOutOfStock        = apperr.InvalidErr("Some items are out of stock.", nil).WithCode("out_of_stock")
	ErrOrderBusy         = apperr.BusyErr("The order is being updated by someone else, please retry.", nil).WithCode("busy")
	ErrNotEligible       = apperr.InvalidErr("This order is not eligible for returns.", nil).WithCode("not_eligible")
	ErrReturnState       = apperr.ConflictErr("The return request cannot be changed in its current status.").WithCode("return_state")
	ErrInvalidTransition = apperr.ConflictErr("Invalid status transition.").WithCode("forbidden_transition")
)

func forbiddenTransitionErr(from, to OrderStatus) error {
	return apperr.ConflictErr(fmt.Sprintf("Cannot change status from %s to %s.", from, to)).WithCode("forbidden_transition")
}

func returnStateErr(action string, status ReturnStatus) error {
	return apperr.ConflictErr(fmt.Sprintf("Cannot %s a return that is %s.", action, status)).WithCode("return_state")
}

func notEligibleErr(reason EligibilityReason) error {
	e := apperr.InvalidErr(reason.Message(), nil).WithCode("not_eligible")
	e.Fields = map[string]string{"reason": string(reason)}
	return e
}

// StockShortage is one cart line that cannot be fulfilled.
type StockShortage struct {
	ProductID int64
	Name      string
	Requested int
	Available int
	Inactive  bool
}

type OutOfStockError struct {
	Lines []StockShortage
}

func (e *OutOfStockError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = fmt.Sprintf("product %d: requested %d, available %d", l.ProductID, l.Requested, l.Available)
	}
	return "out of stock: " + strings.Join(parts, "; ")
}

func outOfStockErr(lines []StockShortage) error {
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	fields := make(map[string]string, len(lines))
	for _, l := range lines {
		key := fmt.Sprintf("product_%d", l.ProductID)
		if l.Inactive {
			fields[key] = fmt.Sprintf("%s is no longer available", l.Name)
			continue
		}
		fields[key] = fmt.Sprintf("%s: requested %d, available %d", l.Name, l.Requested, l.Available)
	}

	e := *ErrOutOfStock
	e.Fields = fields
	e.Err = &OutOfStockError{Lines: lines}
	return &e
}

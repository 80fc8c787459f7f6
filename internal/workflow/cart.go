package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bagstore/storefront/internal/apperr"
	"github.com/bagstore/storefront/internal/repository"
)

// AddToCart adds qty units of a product, merging with an existing line.
// Stock is only advisory here; checkout re-checks it under lock.
func (s *Service) AddToCart(ctx context.Context, userID, productID int64, qty int) error {
	if qty < 1 {
		return apperr.InvalidErr("The given data was invalid.", map[string]string{"quantity": "must be at least 1"})
	}

	p, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrProductNotFound
		}
		return apperr.Wrap(err)
	}
	if !p.IsActive {
		return ErrProductNotFound
	}

	lines, err := s.repos.Carts.Lines(ctx, userID)
	if err != nil {
		return apperr.Wrap(err)
	}
	inCart := 0
	for _, l := range lines {
		if l.ProductID == productID {
			inCart += l.Quantity
		}
	}
	if inCart+qty > p.StockQuantity {
		return apperr.InvalidErr(
			fmt.Sprintf("Only %d units of %s are available.", p.StockQuantity, p.Name),
			map[string]string{"quantity": "exceeds available stock"},
		).WithCode("out_of_stock")
	}

	if err := s.repos.Carts.AddItem(ctx, userID, productID, qty); err != nil {
		return apperr.Wrap(fmt.Errorf("failed to add cart item: %w", err))
	}
	return nil
}

func (s *Service) Cart(ctx context.Context, userID int64) (*CartView, error) {
	lines, err := s.repos.Carts.Lines(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	v := &CartView{Items: make([]CartLineView, 0, len(lines))}
	total := decimal.Zero
	for _, l := range lines {
		subtotal := l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(subtotal)
		v.Items = append(v.Items, CartLineView{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			UnitPrice: money(l.ProductPrice),
			Quantity:  l.Quantity,
			Subtotal:  money(subtotal),
		})
	}
	v.Total = money(total)
	return v, nil
}

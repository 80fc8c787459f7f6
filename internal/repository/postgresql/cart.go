package postgresql

import (
	"context"
	"fmt"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

const cartLinesQuery = `
    SELECT c.id, c.user_id, c.product_id, c.quantity,
           p.name AS product_name, p.price AS product_price, p.stock_quantity, p.is_active
    FROM cart_items c
    JOIN products p ON p.id = c.product_id
    WHERE c.user_id = $1
    ORDER BY c.id
`

type CartRepo struct {
	db db.DB
}

func NewCartRepo(db db.DB) workflow.CartRepository {
	return &CartRepo{db: db}
}

func (r *CartRepo) Lines(ctx context.Context, userID int64) ([]*repository.CartLine, error) {
	var lines []*repository.CartLine
	if err := r.db.Select(ctx, &lines, cartLinesQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to load cart of user %d: %w", userID, err)
	}
	return lines, nil
}

func (r *CartRepo) LinesTx(ctx context.Context, tx db.Tx, userID int64) ([]*repository.CartLine, error) {
	var lines []*repository.CartLine
	if err := tx.Select(ctx, &lines, cartLinesQuery+" FOR UPDATE OF c", userID); err != nil {
		return nil, fmt.Errorf("failed to load cart of user %d: %w", userID, err)
	}
	return lines, nil
}

func (r *CartRepo) AddItem(ctx context.Context, userID, productID int64, qty int) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO cart_items (user_id, product_id, quantity)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, product_id)
        DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
    `, userID, productID, qty)
	return err
}

func (r *CartRepo) ClearTx(ctx context.Context, tx db.Tx, userID int64) error {
	_, err := tx.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return err
}

package postgresql

import (
	"context"
	"fmt"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

const orderItemColumns = "id, order_id, product_id, product_name, product_price, quantity, subtotal, created_at"

type OrderItemRepo struct {
	db db.DB
}

func NewOrderItemRepo(db db.DB) workflow.OrderItemRepository {
	return &OrderItemRepo{db: db}
}

func (r *OrderItemRepo) CreateTx(ctx context.Context, tx db.Tx, item *repository.OrderItem) error {
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO order_items (order_id, product_id, product_name, product_price, quantity, subtotal, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `, item.OrderID, item.ProductID, item.ProductName, item.ProductPrice, item.Quantity, item.Subtotal, item.CreatedAt).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order item for product %d: %w", item.ProductID, err)
	}
	return nil
}

func (r *OrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]*repository.OrderItem, error) {
	var items []*repository.OrderItem
	err := r.db.Select(ctx, &items, "SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %d: %w", orderID, err)
	}
	return items, nil
}

func (r *OrderItemRepo) ListByOrderIDTx(ctx context.Context, tx db.Tx, orderID int64) ([]*repository.OrderItem, error) {
	var items []*repository.OrderItem
	err := tx.Select(ctx, &items, "SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %d: %w", orderID, err)
	}
	return items, nil
}

package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

const orderColumns = `id, user_id, order_number, status, total_amount, shipping_address, shipping_city,
       shipping_phone, notes, is_returnable, has_return, return_deadline, updated_by_admin_id,
       status_changed_at, created_at, updated_at`

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) workflow.OrderRepository {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO orders (
            user_id, order_number, status, total_amount, shipping_address, shipping_city,
            shipping_phone, notes, is_returnable, has_return, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id
    `, order.UserID, order.OrderNumber, order.Status, order.TotalAmount, order.ShippingAddress, order.ShippingCity,
		order.ShippingPhone, order.Notes, order.IsReturnable, order.HasReturn, order.CreatedAt, order.UpdatedAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE order_number = $1", number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetByNumberForUpdateTx(ctx context.Context, tx db.Tx, number string) (*repository.Order, error) {
	var order repository.Order
	err := tx.Get(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE order_number = $1 FOR UPDATE", number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id int64) (*repository.Order, error) {
	var order repository.Order
	err := tx.Get(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id int64, status string, adminID int64, at time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE orders
        SET
            status = $1,
            updated_by_admin_id = $2,
            status_changed_at = $3,
            updated_at = $3
        WHERE id = $4
    `, status, adminID, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *OrderRepo) SetReturnDeadlineTx(ctx context.Context, tx db.Tx, id int64, deadline time.Time) error {
	_, err := tx.Exec(ctx, `
        UPDATE orders
        SET return_deadline = $1
        WHERE id = $2 AND return_deadline IS NULL
    `, deadline, id)
	return err
}

func (r *OrderRepo) SetHasReturnTx(ctx context.Context, tx db.Tx, id int64, hasReturn bool, at time.Time) error {
	tag, err := tx.Exec(ctx, "UPDATE orders SET has_return = $1, updated_at = $2 WHERE id = $3", hasReturn, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

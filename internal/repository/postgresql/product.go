package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/workflow"
)

const productColumns = "id, name, price, stock_quantity, is_active, created_at, updated_at"

type ProductRepo struct {
	db db.DB
}

func NewProductRepo(db db.DB) workflow.ProductRepository {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*repository.Product, error) {
	var p repository.Product
	err := r.db.Get(ctx, &p, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// LockForUpdateTx takes the row locks in ascending id order so concurrent
// checkouts over overlapping carts cannot deadlock.
func (r *ProductRepo) LockForUpdateTx(ctx context.Context, tx db.Tx, ids []int64) ([]*repository.Product, error) {
	var products []*repository.Product
	err := tx.Select(ctx, &products, `
        SELECT `+productColumns+`
        FROM products
        WHERE id = ANY($1)
        ORDER BY id
        FOR UPDATE
    `, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	return products, nil
}

func (r *ProductRepo) DecrementStockTx(ctx context.Context, tx db.Tx, id int64, qty int) (bool, error) {
	tag, err := tx.Exec(ctx, `
        UPDATE products
        SET stock_quantity = stock_quantity - $1, updated_at = NOW()
        WHERE id = $2 AND stock_quantity >= $1
    `, qty, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ProductRepo) IncrementStockTx(ctx context.Context, tx db.Tx, id int64, qty int) error {
	tag, err := tx.Exec(ctx, `
        UPDATE products
        SET stock_quantity = stock_quantity + $1, updated_at = NOW()
        WHERE id = $2
    `, qty, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

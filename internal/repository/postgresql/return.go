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

const returnColumns = `id, order_id, user_id, return_number, status, reason, description, refund_amount,
       refund_method, admin_notes, processed_by_admin_id, approved_at, rejected_at, completed_at,
       created_at, updated_at`

type ReturnRepo struct {
	db db.DB
}

func NewReturnRepo(db db.DB) workflow.ReturnRepository {
	return &ReturnRepo{db: db}
}

func (r *ReturnRepo) CreateTx(ctx context.Context, tx db.Tx, ret *repository.OrderReturn) error {
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO order_returns (
            order_id, user_id, return_number, status, reason, description, refund_amount, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `, ret.OrderID, ret.UserID, ret.ReturnNumber, ret.Status, ret.Reason, ret.Description, ret.RefundAmount,
		ret.CreatedAt, ret.UpdatedAt).Scan(&ret.ID)
	if err != nil {
		return fmt.Errorf("failed to insert return %s: %w", ret.ReturnNumber, err)
	}
	return nil
}

func (r *ReturnRepo) CreateItemTx(ctx context.Context, tx db.Tx, item *repository.OrderReturnItem) error {
	return tx.ExecQueryRow(ctx, `
        INSERT INTO order_return_items (order_return_id, order_item_id, quantity, refund_amount, item_condition, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, item.OrderReturnID, item.OrderItemID, item.Quantity, item.RefundAmount, item.ItemCondition, item.CreatedAt).Scan(&item.ID)
}

func (r *ReturnRepo) CreateImageTx(ctx context.Context, tx db.Tx, img *repository.OrderReturnImage) error {
	return tx.ExecQueryRow(ctx, `
        INSERT INTO order_return_images (order_return_id, image_path, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, img.OrderReturnID, img.ImagePath, img.CreatedAt).Scan(&img.ID)
}

func (r *ReturnRepo) GetByNumber(ctx context.Context, number string) (*repository.OrderReturn, error) {
	var ret repository.OrderReturn
	err := r.db.Get(ctx, &ret, "SELECT "+returnColumns+" FROM order_returns WHERE return_number = $1", number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &ret, nil
}

func (r *ReturnRepo) GetByNumberForUpdateTx(ctx context.Context, tx db.Tx, number string) (*repository.OrderReturn, error) {
	var ret repository.OrderReturn
	err := tx.Get(ctx, &ret, "SELECT "+returnColumns+" FROM order_returns WHERE return_number = $1 FOR UPDATE", number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &ret, nil
}

func (r *ReturnRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, ret *repository.OrderReturn) error {
	tag, err := tx.Exec(ctx, `
        UPDATE order_returns
        SET
            status = $1,
            refund_method = $2,
            admin_notes = $3,
            processed_by_admin_id = $4,
            approved_at = $5,
            rejected_at = $6,
            completed_at = $7,
            updated_at = $8
        WHERE id = $9
    `, ret.Status, ret.RefundMethod, ret.AdminNotes, ret.ProcessedByAdminID, ret.ApprovedAt, ret.RejectedAt,
		ret.CompletedAt, ret.UpdatedAt, ret.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *ReturnRepo) LinesByReturnID(ctx context.Context, returnID int64) ([]*repository.ReturnLine, error) {
	var lines []*repository.ReturnLine
	err := r.db.Select(ctx, &lines, `
        SELECT ri.order_item_id, oi.product_id, oi.product_name, ri.quantity, ri.refund_amount, ri.item_condition
        FROM order_return_items ri
        JOIN order_items oi ON oi.id = ri.order_item_id
        WHERE ri.order_return_id = $1
        ORDER BY ri.id
    `, returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of return %d: %w", returnID, err)
	}
	return lines, nil
}

func (r *ReturnRepo) ImagesByReturnID(ctx context.Context, returnID int64) ([]*repository.OrderReturnImage, error) {
	var images []*repository.OrderReturnImage
	err := r.db.Select(ctx, &images, `
        SELECT id, order_return_id, image_path, created_at
        FROM order_return_images
        WHERE order_return_id = $1
        ORDER BY id
    `, returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of return %d: %w", returnID, err)
	}
	return images, nil
}

type claimedRow struct {
	OrderItemID int64 `db:"order_item_id"`
	Quantity    int   `db:"quantity"`
}

func (r *ReturnRepo) ClaimedQuantitiesTx(ctx context.Context, tx db.Tx, orderID int64) (map[int64]int, error) {
	var rows []claimedRow
	err := tx.Select(ctx, &rows, `
        SELECT ri.order_item_id, SUM(ri.quantity)::int AS quantity
        FROM order_return_items ri
        JOIN order_returns r ON r.id = ri.order_return_id
        WHERE r.order_id = $1 AND r.status IN ('pending', 'approved', 'processing', 'completed')
        GROUP BY ri.order_item_id
    `, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum returned quantities of order %d: %w", orderID, err)
	}
	claimed := make(map[int64]int, len(rows))
	for _, row := range rows {
		claimed[row.OrderItemID] = row.Quantity
	}
	return claimed, nil
}

func (r *ReturnRepo) RestockLinesTx(ctx context.Context, tx db.Tx, returnID int64) ([]repository.StockLine, error) {
	var lines []repository.StockLine
	err := tx.Select(ctx, &lines, `
        SELECT oi.product_id, SUM(ri.quantity)::int AS quantity
        FROM order_return_items ri
        JOIN order_items oi ON oi.id = ri.order_item_id
        WHERE ri.order_return_id = $1
        GROUP BY oi.product_id
        ORDER BY oi.product_id
    `, returnID)
	if err != nil {
		return nil, fmt.Errorf("failed to group return %d by product: %w", returnID, err)
	}
	return lines, nil
}

package workflow

import (
	"context"
	"io"
	"time"

	"github.com/bagstore/storefront/internal/blob"
	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/repository"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*repository.User, error)
	ListByRole(ctx context.Context, role string) ([]*repository.User, error)
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*repository.Product, error)
	// LockForUpdateTx locks the rows in ascending id order.
	LockForUpdateTx(ctx context.Context, tx db.Tx, ids []int64) ([]*repository.Product, error)
	// DecrementStockTx reports false when stock is lower than qty.
	DecrementStockTx(ctx context.Context, tx db.Tx, id int64, qty int) (bool, error)
	IncrementStockTx(ctx context.Context, tx db.Tx, id int64, qty int) error
}

type CartRepository interface {
	Lines(ctx context.Context, userID int64) ([]*repository.CartLine, error)
	LinesTx(ctx context.Context, tx db.Tx, userID int64) ([]*repository.CartLine, error)
	AddItem(ctx context.Context, userID, productID int64, qty int) error
	ClearTx(ctx context.Context, tx db.Tx, userID int64) error
}

type OrderRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) error
	GetByID(ctx context.Context, id int64) (*repository.Order, error)
	GetByNumber(ctx context.Context, number string) (*repository.Order, error)
	GetByNumberForUpdateTx(ctx context.Context, tx db.Tx, number string) (*repository.Order, error)
	GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id int64) (*repository.Order, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, id int64, status string, adminID int64, at time.Time) error
	// SetReturnDeadlineTx only writes when no deadline is stored yet.
	SetReturnDeadlineTx(ctx context.Context, tx db.Tx, id int64, deadline time.Time) error
	SetHasReturnTx(ctx context.Context, tx db.Tx, id int64, hasReturn bool, at time.Time) error
}

type OrderItemRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, item *repository.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]*repository.OrderItem, error)
	ListByOrderIDTx(ctx context.Context, tx db.Tx, orderID int64) ([]*repository.OrderItem, error)
}

type ReturnRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, ret *repository.OrderReturn) error
	CreateItemTx(ctx context.Context, tx db.Tx, item *repository.OrderReturnItem) error
	CreateImageTx(ctx context.Context, tx db.Tx, img *repository.OrderReturnImage) error
	GetByNumber(ctx context.Context, number string) (*repository.OrderReturn, error)
	GetByNumberForUpdateTx(ctx context.Context, tx db.Tx, number string) (*repository.OrderReturn, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, ret *repository.OrderReturn) error
	LinesByReturnID(ctx context.Context, returnID int64) ([]*repository.ReturnLine, error)
	ImagesByReturnID(ctx context.Context, returnID int64) ([]*repository.OrderReturnImage, error)
	// ClaimedQuantitiesTx sums returned quantity per order item over the
	// order's pending, approved, processing and completed returns.
	ClaimedQuantitiesTx(ctx context.Context, tx db.Tx, orderID int64) (map[int64]int, error)
	// RestockLinesTx groups the return's quantities by product, ascending.
	RestockLinesTx(ctx context.Context, tx db.Tx, returnID int64) ([]repository.StockLine, error)
}

type ActivityRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, activity *repository.AdminActivity) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*repository.AdminActivity, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*repository.AdminActivity, error)
	SummarySince(ctx context.Context, adminID int64, since time.Time) (*repository.ActivitySummary, error)
}

type SequenceRepository interface {
	NextTx(ctx context.Context, tx db.Tx, prefix string, day time.Time) (int, error)
}

type OutboxRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
}

type Repositories struct {
	Users      UserRepository
	Products   ProductRepository
	Carts      CartRepository
	Orders     OrderRepository
	OrderItems OrderItemRepository
	Returns    ReturnRepository
	Activities ActivityRepository
	Sequences  SequenceRepository
	Outbox     OutboxRepository
}

// BlobStore keeps return evidence images.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, in blob.PutInput) (blob.PutResult, error)
	Delete(ctx context.Context, key string) error
}

// ViewCache holds rendered order views keyed by order number. A miss hands
// out a ticket; Set drops the view when the order was invalidated after
// that ticket was issued, so a slow read never overwrites a newer state.
type ViewCache interface {
	Get(ctx context.Context, orderNumber string) (view *OrderView, ticket uint64, ok bool)
	Set(ctx context.Context, view *OrderView, ticket uint64)
	Invalidate(ctx context.Context, orderNumber string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*OrderView, uint64, bool) { return nil, 0, false }
func (nopCache) Set(context.Context, *OrderView, uint64)                {}
func (nopCache) Invalidate(context.Context, string)                     {}

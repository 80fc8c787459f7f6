package repository

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrObjectNotFound     = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type User struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

type Product struct {
	ID            int64           `db:"id"`
	Name          string          `db:"name"`
	Price         decimal.Decimal `db:"price"`
	StockQuantity int             `db:"stock_quantity"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// CartLine is a cart_items row joined with its product.
type CartLine struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	ProductID     int64           `db:"product_id"`
	Quantity      int             `db:"quantity"`
	ProductName   string          `db:"product_name"`
	ProductPrice  decimal.Decimal `db:"product_price"`
	StockQuantity int             `db:"stock_quantity"`
	IsActive      bool            `db:"is_active"`
}

type Order struct {
	ID               int64           `db:"id"`
	UserID           int64           `db:"user_id"`
	OrderNumber      string          `db:"order_number"`
	Status           string          `db:"status"`
	TotalAmount      decimal.Decimal `db:"total_amount"`
	ShippingAddress  string          `db:"shipping_address"`
	ShippingCity     string          `db:"shipping_city"`
	ShippingPhone    string          `db:"shipping_phone"`
	Notes            *string         `db:"notes"`
	IsReturnable     bool            `db:"is_returnable"`
	HasReturn        bool            `db:"has_return"`
	ReturnDeadline   *time.Time      `db:"return_deadline"`
	UpdatedByAdminID *int64          `db:"updated_by_admin_id"`
	StatusChangedAt  *time.Time      `db:"status_changed_at"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

type OrderItem struct {
	ID           int64           `db:"id"`
	OrderID      int64           `db:"order_id"`
	ProductID    int64           `db:"product_id"`
	ProductName  string          `db:"product_name"`
	ProductPrice decimal.Decimal `db:"product_price"`
	Quantity     int             `db:"quantity"`
	Subtotal     decimal.Decimal `db:"subtotal"`
	CreatedAt    time.Time       `db:"created_at"`
}

type OrderReturn struct {
	ID                 int64           `db:"id"`
	OrderID            int64           `db:"order_id"`
	UserID             int64           `db:"user_id"`
	ReturnNumber       string          `db:"return_number"`
	Status             string          `db:"status"`
	Reason             string          `db:"reason"`
	Description        string          `db:"description"`
	RefundAmount       decimal.Decimal `db:"refund_amount"`
	RefundMethod       *string         `db:"refund_method"`
	AdminNotes         *string         `db:"admin_notes"`
	ProcessedByAdminID *int64          `db:"processed_by_admin_id"`
	ApprovedAt         *time.Time      `db:"approved_at"`
	RejectedAt         *time.Time      `db:"rejected_at"`
	CompletedAt        *time.Time      `db:"completed_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

type OrderReturnItem struct {
	ID            int64           `db:"id"`
	OrderReturnID int64           `db:"order_return_id"`
	OrderItemID   int64           `db:"order_item_id"`
	Quantity      int             `db:"quantity"`
	RefundAmount  decimal.Decimal `db:"refund_amount"`
	ItemCondition *string         `db:"item_condition"`
	CreatedAt     time.Time       `db:"created_at"`
}

type OrderReturnImage struct {
	ID            int64     `db:"id"`
	OrderReturnID int64     `db:"order_return_id"`
	ImagePath     string    `db:"image_path"`
	CreatedAt     time.Time `db:"created_at"`
}

// StockLine is a product quantity to put back on the shelf.
type StockLine struct {
	ProductID int64 `db:"product_id"`
	Quantity  int   `db:"quantity"`
}

type AdminActivity struct {
	ID          int64           `db:"id"`
	AdminID     int64           `db:"admin_id"`
	Action      string          `db:"action"`
	EntityType  string          `db:"entity_type"`
	EntityID    int64           `db:"entity_id"`
	Description string          `db:"description"`
	Metadata    json.RawMessage `db:"metadata"`
	IPAddress   *string         `db:"ip_address"`
	UserAgent   *string         `db:"user_agent"`
	CreatedAt   time.Time       `db:"created_at"`
}

type ActivitySummary struct {
	TotalActions     int             `db:"total_actions"`
	OrdersUpdated    int             `db:"orders_updated"`
	RevenueCollected decimal.Decimal `db:"revenue_collected"`
}

// ReturnLine is an order_return_items row joined with its order item.
type ReturnLine struct {
	OrderItemID   int64           `db:"order_item_id"`
	ProductID     int64           `db:"product_id"`
	ProductName   string          `db:"product_name"`
	Quantity      int             `db:"quantity"`
	RefundAmount  decimal.Decimal `db:"refund_amount"`
	ItemCondition *string         `db:"item_condition"`
}

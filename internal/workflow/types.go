package workflow

import (
	"io"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Actor is the authenticated user behind a call together with the request
// metadata copied into audit entries.
type Actor struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Role      Role
	IP        string
	UserAgent string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderShipping  OrderStatus = "shipping"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderFailed    OrderStatus = "failed"
)

var orderStatuses = []OrderStatus{OrderPending, OrderShipping, OrderDelivered, OrderCancelled, OrderFailed}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type ReturnStatus string

const (
	ReturnPending    ReturnStatus = "pending"
	ReturnApproved   ReturnStatus = "approved"
	ReturnRejected   ReturnStatus = "rejected"
	ReturnProcessing ReturnStatus = "processing"
	ReturnCompleted  ReturnStatus = "completed"
	ReturnCancelled  ReturnStatus = "cancelled"
)

// Active returns still count against the order's returnable quantity.
func (s ReturnStatus) Active() bool {
	return s != ReturnRejected && s != ReturnCancelled
}

type ReturnReason string

const (
	ReasonDefective      ReturnReason = "defective"
	ReasonWrongItem      ReturnReason = "wrong_item"
	ReasonNotAsDescribed ReturnReason = "not_as_described"
	ReasonChangedMind    ReturnReason = "changed_mind"
	ReasonQualityIssues  ReturnReason = "quality_issues"
	ReasonOther          ReturnReason = "other"
)

var returnReasons = []ReturnReason{
	ReasonDefective, ReasonWrongItem, ReasonNotAsDescribed, ReasonChangedMind, ReasonQualityIssues, ReasonOther,
}

func ParseReturnReason(s string) (ReturnReason, bool) {
	for _, r := range returnReasons {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type RefundMethod string

const (
	RefundOriginalPayment RefundMethod = "original_payment"
	RefundStoreCredit     RefundMethod = "store_credit"
	RefundBankTransfer    RefundMethod = "bank_transfer"
)

func ParseRefundMethod(s string) (RefundMethod, bool) {
	switch m := RefundMethod(s); m {
	case RefundOriginalPayment, RefundStoreCredit, RefundBankTransfer:
		return m, true
	}
	return "", false
}

type ShippingInfo struct {
	Address string
	City    string
	Phone   string
	Notes   string
}

type ReturnItemInput struct {
	OrderItemID int64
	Quantity    int
	Condition   string
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateReturnInput struct {
	OrderNumber string
	Reason      string
	Description string
	Items       []ReturnItemInput
	Images      []ImageUpload
}

type ApproveInput struct {
	RefundMethod string
	Notes        string
}

type OrderItemView struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductPrice string `json:"product_price"`
	Quantity     int    `json:"quantity"`
	Subtotal     string `json:"subtotal"`
}

type OrderView struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          int64           `json:"user_id"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     string          `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingPhone   string          `json:"shipping_phone"`
	Notes           *string         `json:"notes"`
	IsReturnable    bool            `json:"is_returnable"`
	HasReturn       bool            `json:"has_return"`
	ReturnDeadline  *time.Time      `json:"return_deadline"`
	StatusChangedAt *time.Time      `json:"status_changed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []OrderItemView `json:"items"`
}

type ReturnItemView struct {
	OrderItemID   int64   `json:"order_item_id"`
	ProductID     int64   `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Quantity      int     `json:"quantity"`
	RefundAmount  string  `json:"refund_amount"`
	ItemCondition *string `json:"item_condition"`
}

type ReturnView struct {
	ID           int64            `json:"id"`
	ReturnNumber string           `json:"return_number"`
	OrderNumber  string           `json:"order_number"`
	Status       ReturnStatus     `json:"status"`
	Reason       ReturnReason     `json:"reason"`
	Description  string           `json:"description"`
	RefundAmount string           `json:"refund_amount"`
	RefundMethod *string          `json:"refund_method"`
	AdminNotes   *string          `json:"admin_notes"`
	ApprovedAt   *time.Time       `json:"approved_at"`
	RejectedAt   *time.Time       `json:"rejected_at"`
	CompletedAt  *time.Time       `json:"completed_at"`
	CreatedAt    time.Time        `json:"created_at"`
	Items        []ReturnItemView `json:"items"`
	Images       []string         `json:"images"`
}

type CartLineView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartView struct {
	Items []CartLineView `json:"items"`
	Total string         `json:"total"`
}

type ActivityView struct {
	ID          int64           `json:"id"`
	AdminID     int64           `json:"admin_id"`
	Action      ActivityAction  `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    int64           `json:"entity_id"`
	Description string          `json:"description"`
	Payload     ActivityPayload `json:"metadata"`
	IPAddress   *string         `json:"ip_address"`
	UserAgent   *string         `json:"user_agent"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ActivitySummary struct {
	Period           string `json:"period"`
	TotalActions     int    `json:"total_actions"`
	OrdersUpdated    int    `json:"orders_updated"`
	RevenueCollected string `json:"revenue_collected"`
}

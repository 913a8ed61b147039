package order

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
)

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusReturned  Status = "RETURNED"
)

func (s Status) String() string {
	return string(s)
}

var validStatuses = []Status{
	StatusPlaced, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned,
}

// ParseStatus normalizes an admin-supplied status (trimmed, case-insensitive)
// against the closed status set.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", apperr.Validation("order status is required")
	}

	normalized := Status(strings.ToUpper(trimmed))
	if !slices.Contains(validStatuses, normalized) {
		return "", apperr.Validation("invalid order status: %s, valid statuses are: %s", raw, joinStatuses())
	}

	return normalized, nil
}

func joinStatuses() string {
	parts := make([]string, len(validStatuses))
	for i, s := range validStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// OrderItem is immutable once created; UnitPrice is the cart's price at add
// time and LineTotal = Quantity × UnitPrice.
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ProductID int64           `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

type Order struct {
	ID              int64           `json:"id" db:"id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	ShopID          int64           `json:"shop_id" db:"shop_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status          Status          `json:"status" db:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	Items           []OrderItem     `json:"items,omitempty" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

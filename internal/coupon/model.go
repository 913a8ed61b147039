package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFlat    DiscountType = "FLAT"
	DiscountPercent DiscountType = "PERCENT"
)

// Coupon is a discount voucher. A nil ShopID means the coupon is global and
// applies to at most one of the orders produced by a single checkout.
type Coupon struct {
	ID             int64           `json:"id" db:"id"`
	Code           string          `json:"code" db:"code"`
	ShopID         *int64          `json:"shop_id,omitempty" db:"shop_id"`
	Type           DiscountType    `json:"discount_type" db:"discount_type"`
	Value          decimal.Decimal `json:"discount_value" db:"discount_value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount" db:"min_order_amount"`
	ValidFrom      *time.Time      `json:"valid_from,omitempty" db:"valid_from"`
	ValidTo        *time.Time      `json:"valid_to,omitempty" db:"valid_to"`
}

func (c *Coupon) IsGlobal() bool {
	return c.ShopID == nil
}

// Discount returns the subtotal after applying the coupon, floored at zero.
// Percentage discounts are rounded to 2 decimals half-up before subtraction.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var total decimal.Decimal

	switch c.Type {
	case DiscountFlat:
		total = subtotal.Sub(c.Value)
	case DiscountPercent:
		discount := subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
		total = subtotal.Sub(discount)
	default:
		return subtotal
	}

	if total.IsNegative() {
		return decimal.Zero
	}

	return total
}

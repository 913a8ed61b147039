package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
)

// Engine decides whether a coupon may be used at all (ValidateAndFetch) and
// whether it applies to one shop's order within a checkout (Apply).
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// ValidateAndFetch normalizes the code, looks the coupon up and checks its
// validity window and per-user usage. The window bounds are inclusive and
// compared against the current date only, not time of day.
func (e *Engine) ValidateAndFetch(ctx context.Context, code string, userID int64) (*Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	c, err := e.store.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, apperr.NotFound("invalid coupon code: %s", normalized)
		}

		return nil, fmt.Errorf("engine: failed to look up coupon %s: %w", normalized, err)
	}

	today := dateOnly(time.Now())

	if c.ValidFrom != nil && dateOnly(*c.ValidFrom).After(today) {
		return nil, apperr.Conflict("coupon is not yet valid, it becomes active on: %s", c.ValidFrom.Format("2006-01-02"))
	}

	if c.ValidTo != nil && dateOnly(*c.ValidTo).Before(today) {
		return nil, apperr.Conflict("coupon has expired on: %s", c.ValidTo.Format("2006-01-02"))
	}

	used, err := e.store.IsUsedByUser(ctx, userID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to check coupon usage: %w", err)
	}
	if used {
		return nil, apperr.Conflict("you have already used this coupon")
	}

	log.Debug().Str("code", c.Code).Int64("user_id", userID).Msg("engine: coupon validated")

	return c, nil
}

// Apply returns the shop subtotal after the coupon, and whether it actually
// applied. Shop-scoped coupons only touch their own shop's order; global
// coupons apply at most once per checkout, which the caller tracks through
// globalAlreadyUsed.
func (e *Engine) Apply(c *Coupon, shopID int64, subtotal decimal.Decimal, globalAlreadyUsed bool) (decimal.Decimal, bool) {
	if c == nil {
		return subtotal, false
	}

	switch {
	case c.ShopID != nil && *c.ShopID == shopID:
	case c.IsGlobal() && !globalAlreadyUsed:
	default:
		return subtotal, false
	}

	if subtotal.LessThan(c.MinOrderAmount) {
		return subtotal, false
	}

	return c.Discount(subtotal), true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

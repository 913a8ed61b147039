package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCouponNotFound = errors.New("coupon not found")

// Store is the read side of coupon state. Usage rows are written inside the
// checkout transaction by the order repository, so double-spending a coupon
// cannot outlive a rolled-back checkout.
type Store interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	IsUsedByUser(ctx context.Context, userID, couponID int64) (bool, error)
}

type postgresStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	query := `
		SELECT id, code, shop_id, discount_type, discount_value, min_order_amount, valid_from, valid_to
		FROM shop.coupons
		WHERE UPPER(code) = UPPER($1)
	`

	var c Coupon
	err := s.db.QueryRow(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.ShopID,
		&c.Type,
		&c.Value,
		&c.MinOrderAmount,
		&c.ValidFrom,
		&c.ValidTo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}

		return nil, fmt.Errorf("repository: failed to select coupon by code %s: %w", code, err)
	}

	return &c, nil
}

func (s *postgresStore) IsUsedByUser(ctx context.Context, userID, couponID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM shop.coupon_usages WHERE user_id = $1 AND coupon_id = $2
		)
	`

	var used bool
	if err := s.db.QueryRow(ctx, query, userID, couponID).Scan(&used); err != nil {
		return false, fmt.Errorf("repository: failed to check coupon usage for user %d: %w", userID, err)
	}

	return used, nil
}

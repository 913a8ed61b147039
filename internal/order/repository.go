package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrOrderNotFound = errors.New("order not found")

// CouponUsage marks a coupon as spent by a user on a specific order. The row
// is written in the same transaction as the order it belongs to.
type CouponUsage struct {
	UserID   int64
	CouponID int64
	OrderID  int64
}

// PlacedOrder couples one shop's draft order with the coupon usage to record
// alongside it, when the coupon applied to this particular order.
type PlacedOrder struct {
	Order *Order
	Usage *CouponUsage
}

type Repository interface {
	// CreateOrders persists every order of a checkout, its line items and its
	// coupon-usage rows in a single transaction: either the whole checkout's
	// locally-owned state commits or none of it does.
	CreateOrders(ctx context.Context, placed []*PlacedOrder) error
	GetOrderByID(ctx context.Context, orderID int64) (*Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]Order, error)
	GetAllOrders(ctx context.Context) ([]Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus Status) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, newStatus PaymentStatus) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateOrders(ctx context.Context, placed []*PlacedOrder) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Msg("panic recovered during CreateOrders, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Msg("transaction for CreateOrders failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()

	queryOrder := `
		INSERT INTO shop.orders (user_id, shop_id, order_number, shipping_address, total_amount, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`
	queryItem := `
		INSERT INTO shop.order_items (order_id, product_id, quantity, unit_price, line_total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	queryUsage := `
		INSERT INTO shop.coupon_usages (user_id, coupon_id, order_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	for _, po := range placed {
		ord := po.Order

		err = tx.QueryRow(ctx, queryOrder,
			ord.UserID,
			ord.ShopID,
			ord.OrderNumber,
			ord.ShippingAddress,
			ord.TotalAmount,
			string(ord.Status),
			string(ord.PaymentStatus),
			now,
		).Scan(&ord.ID)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order for shop %d: %w", ord.ShopID, err)
		}
		ord.CreatedAt = now

		for i := range ord.Items {
			item := &ord.Items[i]
			item.OrderID = ord.ID
			item.CreatedAt = now

			err = tx.QueryRow(ctx, queryItem,
				ord.ID,
				item.ProductID,
				item.Quantity,
				item.UnitPrice,
				item.LineTotal,
				now,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("repository: failed to insert order item for order %d: %w", ord.ID, err)
			}
		}

		if po.Usage != nil {
			po.Usage.OrderID = ord.ID
			_, err = tx.Exec(ctx, queryUsage, po.Usage.UserID, po.Usage.CouponID, ord.ID, now)
			if err != nil {
				return fmt.Errorf("repository: failed to record coupon usage for order %d: %w", ord.ID, err)
			}
		}
	}

	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, orderID int64) (*Order, error) {
	query := `
		SELECT id, user_id, shop_id, order_number, shipping_address, total_amount, status, payment_status, created_at
		FROM shop.orders
		WHERE id = $1
	`

	var ord Order
	err := r.db.QueryRow(ctx, query, orderID).Scan(
		&ord.ID,
		&ord.UserID,
		&ord.ShopID,
		&ord.OrderNumber,
		&ord.ShippingAddress,
		&ord.TotalAmount,
		&ord.Status,
		&ord.PaymentStatus,
		&ord.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", orderID, err)
	}

	return &ord, nil
}

func (r *postgresRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]Order, error) {
	query := `
		SELECT id, user_id, shop_id, order_number, shipping_address, total_amount, status, payment_status, created_at
		FROM shop.orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.queryOrders(ctx, query, userID)
}

func (r *postgresRepository) GetAllOrders(ctx context.Context) ([]Order, error) {
	query := `
		SELECT id, user_id, shop_id, order_number, shipping_address, total_amount, status, payment_status, created_at
		FROM shop.orders
		ORDER BY created_at DESC
	`

	return r.queryOrders(ctx, query)
}

func (r *postgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var ord Order
		err := rows.Scan(
			&ord.ID,
			&ord.UserID,
			&ord.ShopID,
			&ord.OrderNumber,
			&ord.ShippingAddress,
			&ord.TotalAmount,
			&ord.Status,
			&ord.PaymentStatus,
			&ord.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, ord)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *postgresRepository) GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, line_total, created_at
		FROM shop.order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %d: %w", orderID, err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %d: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus Status) error {
	query := `
		UPDATE shop.orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update status for order %d: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, newStatus PaymentStatus) error {
	query := `
		UPDATE shop.orders
		SET payment_status = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update payment status for order %d: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Package cart supplies the user's shopping cart partitioned by shop. The
// checkout saga reads it and clears it; nothing here mutates stock or orders.
package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Item is a cart line. PriceAtAdd is the unit price captured when the item
// was added, which is what order line items are priced from.
type Item struct {
	ShopID     int64           `json:"shop_id" db:"shop_id"`
	ProductID  int64           `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	PriceAtAdd decimal.Decimal `json:"price_at_add" db:"price_at_add"`
}

type Source interface {
	GetCart(ctx context.Context, userID int64) (map[int64][]Item, error)
	ClearCart(ctx context.Context, userID int64) error
}

type postgresSource struct {
	db *pgxpool.Pool
}

func NewSource(db *pgxpool.Pool) Source {
	return &postgresSource{db: db}
}

func (s *postgresSource) GetCart(ctx context.Context, userID int64) (map[int64][]Item, error) {
	query := `
		SELECT shop_id, product_id, quantity, price_at_add
		FROM shop.cart_items
		WHERE user_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart for user %d: %w", userID, err)
	}
	defer rows.Close()

	itemsByShop := make(map[int64][]Item)
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ShopID, &item.ProductID, &item.Quantity, &item.PriceAtAdd)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item for user %d: %w", userID, err)
		}
		itemsByShop[item.ShopID] = append(itemsByShop[item.ShopID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items for user %d: %w", userID, err)
	}

	return itemsByShop, nil
}

func (s *postgresSource) ClearCart(ctx context.Context, userID int64) error {
	query := `DELETE FROM shop.cart_items WHERE user_id = $1`

	cmdTag, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %d: %w", userID, err)
	}

	log.Debug().Int64("user_id", userID).Int64("removed", cmdTag.RowsAffected()).Msg("repository: cart cleared")

	return nil
}

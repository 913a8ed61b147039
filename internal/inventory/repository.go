package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("inventory not found")

// Repository mutates stock counters with single conditional UPDATEs so the
// check and the mutation are one atomic step at the database. The boolean
// results report whether the condition held; callers translate false into a
// business error (or a logged no-op on the consume path).
type Repository interface {
	GetByProductID(ctx context.Context, productID int64) (*Inventory, error)
	Upsert(ctx context.Context, productID int64, quantity int) error
	IncreaseStock(ctx context.Context, productID int64, qty int) (bool, error)
	DecreaseStock(ctx context.Context, productID int64, qty int) (bool, error)
	Reserve(ctx context.Context, productID int64, qty int) (bool, error)
	Release(ctx context.Context, productID int64, qty int) (bool, error)
	Consume(ctx context.Context, productID int64, qty int) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByProductID(ctx context.Context, productID int64) (*Inventory, error) {
	query := `
		SELECT product_id, quantity, reserved, updated_at
		FROM shop.inventory
		WHERE product_id = $1
	`

	var inv Inventory
	err := r.db.QueryRow(ctx, query, productID).Scan(
		&inv.ProductID,
		&inv.Quantity,
		&inv.Reserved,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("repository: failed to select inventory for product %d: %w", productID, err)
	}

	return &inv, nil
}

// Upsert creates the record or resets it to the given quantity with zero
// reserved. Reset semantics, not additive.
func (r *postgresRepository) Upsert(ctx context.Context, productID int64, quantity int) error {
	query := `
		INSERT INTO shop.inventory (product_id, quantity, reserved, updated_at)
		VALUES ($1, $2, 0, $3)
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved = 0, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query, productID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to upsert inventory for product %d: %w", productID, err)
	}

	return nil
}

func (r *postgresRepository) IncreaseStock(ctx context.Context, productID int64, qty int) (bool, error) {
	query := `
		UPDATE shop.inventory
		SET quantity = quantity + $2, updated_at = $3
		WHERE product_id = $1
	`

	return r.conditionalUpdate(ctx, "increase stock", query, productID, qty)
}

func (r *postgresRepository) DecreaseStock(ctx context.Context, productID int64, qty int) (bool, error) {
	query := `
		UPDATE shop.inventory
		SET quantity = quantity - $2, updated_at = $3
		WHERE product_id = $1 AND quantity >= $2
	`

	return r.conditionalUpdate(ctx, "decrease stock", query, productID, qty)
}

// Reserve is the authoritative gate against overselling: the availability
// condition and the increment are one statement, so two concurrent
// reservations can never jointly exceed available stock.
func (r *postgresRepository) Reserve(ctx context.Context, productID int64, qty int) (bool, error) {
	query := `
		UPDATE shop.inventory
		SET reserved = reserved + $2, updated_at = $3
		WHERE product_id = $1 AND quantity - reserved >= $2
	`

	return r.conditionalUpdate(ctx, "reserve stock", query, productID, qty)
}

func (r *postgresRepository) Release(ctx context.Context, productID int64, qty int) (bool, error) {
	query := `
		UPDATE shop.inventory
		SET reserved = reserved - $2, updated_at = $3
		WHERE product_id = $1 AND reserved >= $2
	`

	return r.conditionalUpdate(ctx, "release reserved stock", query, productID, qty)
}

// Consume moves reserved stock out of the system. It is always issued on the
// pool, never inside a caller's transaction, so its outcome commits (or
// fails) independently of whatever triggered it.
func (r *postgresRepository) Consume(ctx context.Context, productID int64, qty int) (bool, error) {
	query := `
		UPDATE shop.inventory
		SET quantity = quantity - $2, reserved = reserved - $2, updated_at = $3
		WHERE product_id = $1 AND reserved >= $2 AND quantity >= $2
	`

	return r.conditionalUpdate(ctx, "consume reserved stock", query, productID, qty)
}

func (r *postgresRepository) conditionalUpdate(ctx context.Context, op, query string, productID int64, qty int) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, query, productID, qty, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("repository: failed to %s for product %d: %w", op, productID, err)
	}

	return cmdTag.RowsAffected() > 0, nil
}

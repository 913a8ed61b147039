package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReturnNotFound = errors.New("return request not found")

type Repository interface {
	Save(ctx context.Context, req *ReturnRequest) error
	FindByUserID(ctx context.Context, userID int64) ([]ReturnRequest, error)
	FindByOrderID(ctx context.Context, orderID int64) (*ReturnRequest, error)
	ExistsByOrderID(ctx context.Context, orderID int64) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Save(ctx context.Context, req *ReturnRequest) error {
	query := `
		INSERT INTO shop.return_requests (order_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now().UTC()
	req.Status = StatusRequested
	req.CreatedAt = now

	err := r.db.QueryRow(ctx, query, req.OrderID, req.Reason, req.Status, now).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to save return request for order %d: %w", req.OrderID, err)
	}

	return nil
}

// FindByUserID joins through orders because return rows carry no user id of
// their own.
func (r *postgresRepository) FindByUserID(ctx context.Context, userID int64) ([]ReturnRequest, error) {
	query := `
		SELECT rr.id, rr.order_id, rr.reason, rr.status, rr.created_at
		FROM shop.return_requests rr
		JOIN shop.orders o ON rr.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY rr.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query return requests for user %d: %w", userID, err)
	}
	defer rows.Close()

	requests := make([]ReturnRequest, 0)
	for rows.Next() {
		var req ReturnRequest
		err := rows.Scan(&req.ID, &req.OrderID, &req.Reason, &req.Status, &req.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan return request for user %d: %w", userID, err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating return requests for user %d: %w", userID, err)
	}

	return requests, nil
}

func (r *postgresRepository) FindByOrderID(ctx context.Context, orderID int64) (*ReturnRequest, error) {
	query := `
		SELECT id, order_id, reason, status, created_at
		FROM shop.return_requests
		WHERE order_id = $1
	`

	var req ReturnRequest
	err := r.db.QueryRow(ctx, query, orderID).Scan(&req.ID, &req.OrderID, &req.Reason, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReturnNotFound
		}

		return nil, fmt.Errorf("repository: failed to select return request for order %d: %w", orderID, err)
	}

	return &req, nil
}

func (r *postgresRepository) ExistsByOrderID(ctx context.Context, orderID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM shop.return_requests WHERE order_id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check return existence for order %d: %w", orderID, err)
	}

	return exists, nil
}

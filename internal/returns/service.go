// Package returns handles post-delivery return requests. A return is a
// separate workflow from cancellation: the order has shipped, so no inventory
// moves here, only a review request gets recorded.
package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/order"
)

const maxReasonLength = 1000

type RequestReturnInput struct {
	OrderID int64  `json:"order_id"`
	Reason  string `json:"reason"`
}

// OrderReader is the slice of the order service needed to guard a return.
type OrderReader interface {
	GetOrderDetails(ctx context.Context, orderID int64) (*order.Order, error)
}

type Service interface {
	RequestReturn(ctx context.Context, userID int64, input *RequestReturnInput) (*ReturnRequest, error)
	GetUserReturns(ctx context.Context, userID int64) ([]ReturnRequest, error)
	GetReturnByOrderID(ctx context.Context, userID, orderID int64) (*ReturnRequest, error)
}

type service struct {
	repo   Repository
	orders OrderReader
}

func NewService(repo Repository, orders OrderReader) Service {
	return &service{repo: repo, orders: orders}
}

// RequestReturn records a return request for a delivered order. Only the
// order's owner may file one, and only once per order.
func (s *service) RequestReturn(ctx context.Context, userID int64, input *RequestReturnInput) (*ReturnRequest, error) {
	if userID <= 0 {
		return nil, apperr.Validation("invalid user ID: %d", userID)
	}
	if input == nil {
		return nil, apperr.Validation("return request is required")
	}
	if input.OrderID <= 0 {
		return nil, apperr.Validation("invalid order ID: %d", input.OrderID)
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperr.Validation("return reason is required")
	}
	if len(reason) > maxReasonLength {
		return nil, apperr.Validation("return reason is too long, maximum %d characters allowed", maxReasonLength)
	}

	ord, err := s.orders.GetOrderDetails(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if ord.UserID != userID {
		log.Warn().Int64("order_id", input.OrderID).Int64("user_id", userID).Int64("owner_id", ord.UserID).
			Msg("service: unauthorized return attempt")
		return nil, apperr.Unauthorized("you are not authorized to request a return for this order")
	}

	if ord.Status != order.StatusDelivered {
		return nil, apperr.Conflict("only delivered orders can be returned, current status: %s", ord.Status)
	}

	exists, err := s.repo.ExistsByOrderID(ctx, input.OrderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check existing return for order %d: %w", input.OrderID, err)
	}
	if exists {
		return nil, apperr.Conflict("a return request already exists for this order")
	}

	req := &ReturnRequest{
		OrderID: input.OrderID,
		Reason:  reason,
	}
	if err := s.repo.Save(ctx, req); err != nil {
		return nil, fmt.Errorf("service: failed to save return request: %w", err)
	}

	log.Info().Int64("order_id", input.OrderID).Int64("user_id", userID).Msg("service: return requested")

	return req, nil
}

func (s *service) GetUserReturns(ctx context.Context, userID int64) ([]ReturnRequest, error) {
	if userID <= 0 {
		return nil, apperr.Validation("invalid user ID: %d", userID)
	}

	requests, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch return requests: %w", err)
	}

	return requests, nil
}

// GetReturnByOrderID looks up the return filed against one order, verifying
// the caller owns the order first.
func (s *service) GetReturnByOrderID(ctx context.Context, userID, orderID int64) (*ReturnRequest, error) {
	if userID <= 0 {
		return nil, apperr.Validation("invalid user ID: %d", userID)
	}
	if orderID <= 0 {
		return nil, apperr.Validation("invalid order ID: %d", orderID)
	}

	ord, err := s.orders.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.UserID != userID {
		return nil, apperr.Unauthorized("you are not authorized to view returns for this order")
	}

	req, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrReturnNotFound) {
			return nil, apperr.NotFound("no return request found for order: %d", orderID)
		}

		return nil, fmt.Errorf("service: failed to fetch return request for order %d: %w", orderID, err)
	}

	return req, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/observability"
)

type Service interface {
	GetInventory(ctx context.Context, productID int64) (*Inventory, error)
	Initialize(ctx context.Context, productID int64, quantity int) (*Inventory, error)
	AddStock(ctx context.Context, productID int64, qty int) (*Inventory, error)
	DecreaseStock(ctx context.Context, productID int64, qty int) (*Inventory, error)
	ReserveStock(ctx context.Context, productID int64, qty int) (*Inventory, error)
	ReleaseReserved(ctx context.Context, productID int64, qty int) (*Inventory, error)

	// ConsumeReservedOnOrder never fails: it runs after payment has been
	// captured, so every problem collapses to a logged no-op returning nil.
	ConsumeReservedOnOrder(ctx context.Context, productID int64, qty int) *Inventory
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetInventory(ctx context.Context, productID int64) (*Inventory, error) {
	inv, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("inventory not found for product: %d", productID)
		}

		return nil, fmt.Errorf("service: failed to fetch inventory: %w", err)
	}

	return inv, nil
}

func (s *service) Initialize(ctx context.Context, productID int64, quantity int) (*Inventory, error) {
	if quantity < 0 {
		return nil, apperr.Validation("initial quantity cannot be negative")
	}

	if err := s.repo.Upsert(ctx, productID, quantity); err != nil {
		return nil, fmt.Errorf("service: failed to initialize inventory: %w", err)
	}

	log.Info().Int64("product_id", productID).Int("quantity", quantity).Msg("service: inventory initialized")

	return s.GetInventory(ctx, productID)
}

func (s *service) AddStock(ctx context.Context, productID int64, qty int) (*Inventory, error) {
	if err := s.checkQuantityAndRecord(ctx, productID, qty); err != nil {
		return nil, err
	}

	ok, err := s.repo.IncreaseStock(ctx, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("service: failed to add stock: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("inventory not found for product: %d", productID)
	}

	log.Info().Int64("product_id", productID).Int("qty", qty).Msg("service: stock added")

	return s.GetInventory(ctx, productID)
}

func (s *service) DecreaseStock(ctx context.Context, productID int64, qty int) (*Inventory, error) {
	if err := s.checkQuantityAndRecord(ctx, productID, qty); err != nil {
		return nil, err
	}

	ok, err := s.repo.DecreaseStock(ctx, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("service: failed to decrease stock: %w", err)
	}
	if !ok {
		return nil, apperr.Conflict("not enough stock to decrease")
	}

	log.Info().Int64("product_id", productID).Int("qty", qty).Msg("service: stock decreased")

	return s.GetInventory(ctx, productID)
}

func (s *service) ReserveStock(ctx context.Context, productID int64, qty int) (*Inventory, error) {
	if err := s.checkQuantityAndRecord(ctx, productID, qty); err != nil {
		return nil, err
	}

	ok, err := s.repo.Reserve(ctx, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reserve stock: %w", err)
	}
	if !ok {
		return nil, apperr.Conflict("not enough available stock to reserve for product: %d", productID)
	}

	log.Info().Int64("product_id", productID).Int("qty", qty).Msg("service: stock reserved")

	return s.GetInventory(ctx, productID)
}

func (s *service) ReleaseReserved(ctx context.Context, productID int64, qty int) (*Inventory, error) {
	if err := s.checkQuantityAndRecord(ctx, productID, qty); err != nil {
		return nil, err
	}

	ok, err := s.repo.Release(ctx, productID, qty)
	if err != nil {
		return nil, fmt.Errorf("service: failed to release reserved stock: %w", err)
	}
	if !ok {
		return nil, apperr.Conflict("not enough reserved stock to release")
	}

	log.Info().Int64("product_id", productID).Int("qty", qty).Msg("service: reserved stock released")

	return s.GetInventory(ctx, productID)
}

func (s *service) ConsumeReservedOnOrder(ctx context.Context, productID int64, qty int) *Inventory {
	if qty <= 0 {
		s.skipConsume(productID, qty, "invalid_quantity", "invalid quantity, skipping consumption")
		return nil
	}

	inv, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		s.skipConsume(productID, qty, "missing_record", "no inventory record, skipping consumption")
		return nil
	}

	if inv.Reserved < qty {
		log.Warn().
			Int64("product_id", productID).
			Int("reserved", inv.Reserved).
			Int("qty", qty).
			Msg("service: reserved stock below requested consumption, skipping")
		observability.ConsumeNoops.WithLabelValues("insufficient_reserved").Inc()
		return nil
	}

	ok, err := s.repo.Consume(ctx, productID, qty)
	if err != nil || !ok {
		s.skipConsume(productID, qty, "update_failed", "failed to consume reserved stock, skipping")
		return nil
	}

	log.Info().Int64("product_id", productID).Int("qty", qty).Msg("service: reserved stock consumed")

	updated, err := s.repo.GetByProductID(ctx, productID)
	if err != nil {
		// Consumption itself committed; only the readback failed.
		return &Inventory{ProductID: productID, Quantity: inv.Quantity - qty, Reserved: inv.Reserved - qty}
	}

	return updated
}

func (s *service) skipConsume(productID int64, qty int, reason, msg string) {
	log.Warn().Int64("product_id", productID).Int("qty", qty).Msg("service: " + msg)
	observability.ConsumeNoops.WithLabelValues(reason).Inc()
}

func (s *service) checkQuantityAndRecord(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return apperr.Validation("quantity must be greater than zero")
	}

	if _, err := s.repo.GetByProductID(ctx, productID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("inventory not found for product: %d", productID)
		}

		return fmt.Errorf("service: failed to check inventory record: %w", err)
	}

	return nil
}

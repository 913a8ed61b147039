package order

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/cart"
	"github.com/SunlovingShadow/Ecom29112025/internal/coupon"
	"github.com/SunlovingShadow/Ecom29112025/internal/inventory"
	"github.com/SunlovingShadow/Ecom29112025/internal/observability"
)

const (
	minAddressLength = 10
	maxAddressLength = 500
)

var letterPattern = regexp.MustCompile(`[a-zA-Z]`)

type PlaceOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	CouponCode      string `json:"coupon_code,omitempty"`
}

// CouponValidator is the slice of the coupon engine the checkout saga needs.
type CouponValidator interface {
	ValidateAndFetch(ctx context.Context, code string, userID int64) (*coupon.Coupon, error)
	Apply(c *coupon.Coupon, shopID int64, subtotal decimal.Decimal, globalAlreadyUsed bool) (decimal.Decimal, bool)
}

type Service interface {
	PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) ([]Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]Order, error)
	GetOrderDetails(ctx context.Context, orderID int64) (*Order, error)
	GetAllOrders(ctx context.Context) ([]Order, error)
	CancelOrder(ctx context.Context, orderID int64, userID *int64) error
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) (*Order, error)
	MarkOrderPaid(ctx context.Context, orderID int64) error
}

type service struct {
	orders  Repository
	carts   cart.Source
	stock   inventory.Service
	coupons CouponValidator
}

func NewService(orders Repository, carts cart.Source, stock inventory.Service, coupons CouponValidator) Service {
	return &service{
		orders:  orders,
		carts:   carts,
		stock:   stock,
		coupons: coupons,
	}
}

// PlaceOrder runs the checkout saga: validate, fetch cart, check
// availability, reserve, validate coupon, create one order per shop, clear
// cart. Failures after the reserve step release exactly the reservations held
// at that point; order/item/usage rows commit in one transaction, so a
// failed checkout leaves no partial orders behind.
func (s *service) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) ([]Order, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.Validation("order request is required")
	}
	address, err := validateShippingAddress(req.ShippingAddress)
	if err != nil {
		return nil, err
	}

	itemsByShop, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch cart for user %d: %w", userID, err)
	}
	if len(itemsByShop) == 0 {
		return nil, apperr.Conflict("cannot place order: your cart is empty")
	}

	// Shop groups are processed in ascending shop id so global-coupon
	// application is deterministic.
	shopIDs := make([]int64, 0, len(itemsByShop))
	for shopID := range itemsByShop {
		shopIDs = append(shopIDs, shopID)
	}
	sort.Slice(shopIDs, func(i, j int) bool { return shopIDs[i] < shopIDs[j] })

	allItems := make([]cart.Item, 0)
	for _, shopID := range shopIDs {
		allItems = append(allItems, itemsByShop[shopID]...)
	}

	if err := s.checkAvailability(ctx, allItems); err != nil {
		return nil, err
	}

	held, err := s.reserveAll(ctx, allItems)
	if err != nil {
		return nil, err
	}

	var coup *coupon.Coupon
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		coup, err = s.coupons.ValidateAndFetch(ctx, code, userID)
		if err != nil {
			s.releaseHeld(ctx, held, "coupon_rejected")
			return nil, err
		}
	}

	placed := make([]*PlacedOrder, 0, len(shopIDs))
	globalUsed := false
	for _, shopID := range shopIDs {
		shopItems := itemsByShop[shopID]
		subtotal := shopSubtotal(shopItems)

		total := subtotal
		applied := false
		if coup != nil {
			total, applied = s.coupons.Apply(coup, shopID, subtotal, globalUsed)
			if applied && coup.IsGlobal() {
				globalUsed = true
			}
		}

		po := &PlacedOrder{
			Order: &Order{
				UserID:          userID,
				ShopID:          shopID,
				OrderNumber:     generateOrderNumber(shopID),
				ShippingAddress: address,
				TotalAmount:     total.Round(2),
				Status:          StatusPlaced,
				PaymentStatus:   PaymentPending,
				Items:           buildOrderItems(shopItems),
			},
		}
		if applied {
			po.Usage = &CouponUsage{UserID: userID, CouponID: coup.ID}
		}
		placed = append(placed, po)
	}

	if err := s.orders.CreateOrders(ctx, placed); err != nil {
		s.releaseHeld(ctx, held, "order_creation")
		return nil, fmt.Errorf("service: failed to create orders: %w", err)
	}

	// Orders are committed and stock is held for them; a stale cart is the
	// only consequence of a failure here.
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to clear cart after checkout")
	}

	observability.OrdersPlaced.Add(float64(len(placed)))
	log.Info().Int64("user_id", userID).Int("orders", len(placed)).Msg("service: order placed")

	result := make([]Order, 0, len(placed))
	for _, po := range placed {
		result = append(result, *po.Order)
	}
	return result, nil
}

// checkAvailability reads every cart line and aggregates all offending lines
// into one error instead of stopping at the first. It reserves nothing; the
// atomic reserve call remains the authoritative gate.
func (s *service) checkAvailability(ctx context.Context, items []cart.Item) error {
	var outOfStock, insufficient []string

	for _, item := range items {
		inv, err := s.stock.GetInventory(ctx, item.ProductID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				outOfStock = append(outOfStock, fmt.Sprintf("product %d is not available", item.ProductID))
				continue
			}

			return fmt.Errorf("service: failed to check inventory for product %d: %w", item.ProductID, err)
		}

		available := inv.Available()
		switch {
		case available <= 0:
			outOfStock = append(outOfStock, fmt.Sprintf("product %d is out of stock", item.ProductID))
		case available < item.Quantity:
			insufficient = append(insufficient,
				fmt.Sprintf("product %d: requested %d, only %d available", item.ProductID, item.Quantity, available))
		}
	}

	if len(outOfStock) == 0 && len(insufficient) == 0 {
		return nil
	}

	parts := make([]string, 0, 2)
	if len(outOfStock) > 0 {
		parts = append(parts, "out of stock: "+strings.Join(outOfStock, ", "))
	}
	if len(insufficient) > 0 {
		parts = append(parts, "insufficient stock: "+strings.Join(insufficient, ", "))
	}

	log.Warn().Int("out_of_stock", len(outOfStock)).Int("insufficient", len(insufficient)).Msg("service: inventory check failed")

	return apperr.Conflict("cannot place order: %s", strings.Join(parts, "; "))
}

// reserveAll reserves each line in turn and returns the held set. On failure
// it releases the subset reserved so far and fails with the underlying cause.
func (s *service) reserveAll(ctx context.Context, items []cart.Item) ([]cart.Item, error) {
	held := make([]cart.Item, 0, len(items))

	for _, item := range items {
		if _, err := s.stock.ReserveStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Warn().Err(err).Int64("product_id", item.ProductID).Msg("service: reservation failed, compensating")
			s.releaseHeld(ctx, held, "reserve")
			return nil, apperr.Wrap(apperr.KindConflict, err, "failed to reserve inventory")
		}
		held = append(held, item)
	}

	return held, nil
}

// releaseHeld is best-effort compensation: a failed release is logged and
// counted, never re-raised, and does not block releasing the rest.
func (s *service) releaseHeld(ctx context.Context, held []cart.Item, stage string) {
	for _, item := range held {
		if _, err := s.stock.ReleaseReserved(ctx, item.ProductID, item.Quantity); err != nil {
			observability.CompensationFailures.WithLabelValues(stage).Inc()
			log.Error().Err(err).
				Int64("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Str("stage", stage).
				Msg("service: failed to release reserved stock during compensation")
		}
	}
}

func (s *service) GetUserOrders(ctx context.Context, userID int64) ([]Order, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	orders, err := s.orders.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) GetOrderDetails(ctx context.Context, orderID int64) (*Order, error) {
	if err := validateOrderID(orderID); err != nil {
		return nil, err
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch order items: %w", err)
	}
	ord.Items = items

	return ord, nil
}

func (s *service) GetAllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.GetAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch all orders: %w", err)
	}

	return orders, nil
}

// CancelOrder releases the order's reservations and transitions it to
// CANCELLED. The status guard runs first: shipped and later orders keep
// their stock, the caller is told to request a return instead.
func (s *service) CancelOrder(ctx context.Context, orderID int64, userID *int64) error {
	if err := validateOrderID(orderID); err != nil {
		return err
	}
	if userID != nil {
		if err := validateUserID(*userID); err != nil {
			return err
		}
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if userID != nil && ord.UserID != *userID {
		log.Warn().Int64("order_id", orderID).Int64("user_id", *userID).Int64("owner_id", ord.UserID).
			Msg("service: unauthorized cancellation attempt")
		return apperr.Unauthorized("you are not authorized to cancel this order")
	}

	switch ord.Status {
	case StatusShipped:
		return apperr.Conflict("cannot cancel order: it has already been shipped, please wait for delivery and request a return instead")
	case StatusDelivered:
		return apperr.Conflict("cannot cancel order: it has already been delivered, please request a return instead")
	case StatusCancelled:
		return apperr.Conflict("order has already been cancelled")
	case StatusReturned:
		return apperr.Conflict("cannot cancel order: it has already been returned")
	}

	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("service: failed to fetch items for order %d: %w", orderID, err)
	}

	for _, item := range items {
		if _, err := s.stock.ReleaseReserved(ctx, item.ProductID, item.Quantity); err != nil {
			observability.CompensationFailures.WithLabelValues("cancel").Inc()
			log.Warn().Err(err).Int64("product_id", item.ProductID).Int("quantity", item.Quantity).
				Msg("service: could not release reserved stock for cancelled order")
		}
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, StatusCancelled); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return apperr.NotFound("order not found with ID: %d", orderID)
		}
		return fmt.Errorf("service: failed to cancel order %d: %w", orderID, err)
	}

	log.Info().Int64("order_id", orderID).Msg("service: order cancelled")

	return nil
}

// UpdateOrderStatus is the admin path. Delivered and cancelled orders are
// terminal for this operation.
func (s *service) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) (*Order, error) {
	if err := validateOrderID(orderID); err != nil {
		return nil, err
	}

	status, err := ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.Status == StatusDelivered {
		return nil, apperr.Conflict("cannot change status of a delivered order")
	}
	if ord.Status == StatusCancelled {
		return nil, apperr.Conflict("cannot change status of a cancelled order")
	}

	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found with ID: %d", orderID)
		}
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Int64("order_id", orderID).Stringer("old_status", ord.Status).Stringer("new_status", status).
		Msg("service: order status updated")

	ord.Status = status

	return ord, nil
}

// MarkOrderPaid records a captured payment and consumes the reserved stock
// for every line. Consumption is graceful: it runs after the money moved, so
// problems there are logged and counted, never returned.
func (s *service) MarkOrderPaid(ctx context.Context, orderID int64) error {
	if err := validateOrderID(orderID); err != nil {
		return err
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if ord.PaymentStatus != PaymentPending {
		return apperr.Conflict("order payment is already %s", ord.PaymentStatus)
	}

	items, err := s.orders.GetOrderItems(ctx, orderID)
	if err != nil {
		return fmt.Errorf("service: failed to fetch items for order %d: %w", orderID, err)
	}

	if err := s.orders.UpdatePaymentStatus(ctx, orderID, PaymentPaid); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return apperr.NotFound("order not found with ID: %d", orderID)
		}
		return fmt.Errorf("service: failed to update payment status for order %d: %w", orderID, err)
	}

	for _, item := range items {
		if s.stock.ConsumeReservedOnOrder(ctx, item.ProductID, item.Quantity) == nil {
			log.Warn().Int64("order_id", orderID).Int64("product_id", item.ProductID).
				Msg("service: reserved stock not consumed for paid order line")
		}
	}

	log.Info().Int64("order_id", orderID).Msg("service: order marked paid")

	return nil
}

func (s *service) getOrder(ctx context.Context, orderID int64) (*Order, error) {
	ord, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found with ID: %d", orderID)
		}

		return nil, fmt.Errorf("service: failed to fetch order %d: %w", orderID, err)
	}

	return ord, nil
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return apperr.Validation("invalid user ID: %d", userID)
	}
	return nil
}

func validateOrderID(orderID int64) error {
	if orderID <= 0 {
		return apperr.Validation("invalid order ID: %d", orderID)
	}
	return nil
}

func validateShippingAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)

	if trimmed == "" {
		return "", apperr.Validation("shipping address is required")
	}
	if len(trimmed) < minAddressLength {
		return "", apperr.Validation("shipping address is too short, please provide a complete address (minimum %d characters)", minAddressLength)
	}
	if len(trimmed) > maxAddressLength {
		return "", apperr.Validation("shipping address is too long, maximum %d characters allowed", maxAddressLength)
	}
	if !letterPattern.MatchString(trimmed) {
		return "", apperr.Validation("invalid shipping address, address must contain letters, not just numbers")
	}

	return trimmed, nil
}

func shopSubtotal(items []cart.Item) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.PriceAtAdd.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

func buildOrderItems(items []cart.Item) []OrderItem {
	orderItems := make([]OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.PriceAtAdd,
			LineTotal: item.PriceAtAdd.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return orderItems
}

// generateOrderNumber combines a coarse timestamp, the shop id and a random
// token so concurrent placements for the same shop cannot collide.
func generateOrderNumber(shopID int64) string {
	token := "00000000"
	if id, err := uuid.NewV4(); err == nil {
		token = id.String()[:8]
	}
	return fmt.Sprintf("ORD-%s-%d-%s", time.Now().UTC().Format("20060102150405"), shopID, token)
}

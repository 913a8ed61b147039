package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/order"
)

type mockOrderService struct {
	placeOrderFunc        func(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error)
	cancelOrderFunc       func(ctx context.Context, orderID int64, userID *int64) error
	updateOrderStatusFunc func(ctx context.Context, orderID int64, newStatus string) (*order.Order, error)
	getOrderDetailsFunc   func(ctx context.Context, orderID int64) (*order.Order, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error) {
	return m.placeOrderFunc(ctx, userID, req)
}

func (m *mockOrderService) GetUserOrders(ctx context.Context, userID int64) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderService) GetOrderDetails(ctx context.Context, orderID int64) (*order.Order, error) {
	return m.getOrderDetailsFunc(ctx, orderID)
}

func (m *mockOrderService) GetAllOrders(ctx context.Context) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderService) CancelOrder(ctx context.Context, orderID int64, userID *int64) error {
	return m.cancelOrderFunc(ctx, orderID, userID)
}

func (m *mockOrderService) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus string) (*order.Order, error) {
	return m.updateOrderStatusFunc(ctx, orderID, newStatus)
}

func (m *mockOrderService) MarkOrderPaid(ctx context.Context, orderID int64) error {
	return nil
}

func newOrderRouter(svc order.Service) *chi.Mux {
	h := NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/orders/{userID}", h.PlaceOrder)
	r.Get("/api/orders/{orderID}", h.GetOrderDetails)
	r.Post("/api/orders/{orderID}/cancel", h.CancelOrder)
	r.Patch("/api/orders/{orderID}/status", h.UpdateOrderStatus)
	return r
}

func TestOrderHandler_PlaceOrder(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		body           string
		placeOrder     func(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "success",
			url:  "/api/orders/3",
			body: `{"shipping_address": "221B Baker Street, London"}`,
			placeOrder: func(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error) {
				return []order.Order{{
					ID:          1,
					UserID:      userID,
					ShopID:      5,
					Status:      order.StatusPlaced,
					TotalAmount: decimal.RequireFromString("39.98"),
				}}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "validation_maps_to_400",
			url:  "/api/orders/3",
			body: `{"shipping_address": "short"}`,
			placeOrder: func(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error) {
				return nil, apperr.Validation("shipping address is too short, please provide a complete address (minimum 10 characters)")
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "shipping address is too short",
		},
		{
			name: "conflict_maps_to_409",
			url:  "/api/orders/3",
			body: `{"shipping_address": "221B Baker Street, London"}`,
			placeOrder: func(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error) {
				return nil, apperr.Conflict("cannot place order: your cart is empty")
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "cart is empty",
		},
		{
			name: "internal_errors_are_masked",
			url:  "/api/orders/3",
			body: `{"shipping_address": "221B Baker Street, London"}`,
			placeOrder: func(ctx context.Context, userID int64, req *order.PlaceOrderRequest) ([]order.Order, error) {
				return nil, assert.AnError
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
		{
			name:           "invalid_json",
			url:            "/api/orders/3",
			body:           `{invalid json}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid request body",
		},
		{
			name:           "non_numeric_user_id",
			url:            "/api/orders/abc",
			body:           `{"shipping_address": "221B Baker Street, London"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid userID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockOrderService{placeOrderFunc: tt.placeOrder}
			r := newOrderRouter(mockSvc)

			req := httptest.NewRequest(http.MethodPost, tt.url, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedError != "" {
				var resp errorResponse
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Contains(t, resp.Error, tt.expectedError)
			}
		})
	}
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	t.Run("passes_optional_user_id", func(t *testing.T) {
		var gotUserID *int64
		mockSvc := &mockOrderService{
			cancelOrderFunc: func(ctx context.Context, orderID int64, userID *int64) error {
				gotUserID = userID
				return nil
			},
		}
		r := newOrderRouter(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/orders/7/cancel?user_id=3", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		if assert.NotNil(t, gotUserID) {
			assert.Equal(t, int64(3), *gotUserID)
		}
	})

	t.Run("unauthorized_maps_to_403", func(t *testing.T) {
		mockSvc := &mockOrderService{
			cancelOrderFunc: func(ctx context.Context, orderID int64, userID *int64) error {
				return apperr.Unauthorized("you are not authorized to cancel this order")
			},
		}
		r := newOrderRouter(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/orders/7/cancel?user_id=99", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	mockSvc := &mockOrderService{
		updateOrderStatusFunc: func(ctx context.Context, orderID int64, newStatus string) (*order.Order, error) {
			return &order.Order{ID: orderID, Status: order.StatusShipped}, nil
		},
	}
	r := newOrderRouter(mockSvc)

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/7/status", bytes.NewBufferString(`{"status": "shipped"}`))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp order.Order
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, order.StatusShipped, resp.Status)
}

func TestOrderHandler_GetOrderDetails_NotFound(t *testing.T) {
	mockSvc := &mockOrderService{
		getOrderDetailsFunc: func(ctx context.Context, orderID int64) (*order.Order, error) {
			return nil, apperr.NotFound("order not found with ID: %d", orderID)
		},
	}
	r := newOrderRouter(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/404", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

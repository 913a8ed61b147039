package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/order"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// PlaceOrder runs the checkout for the user in the path. Responds with the
// created orders, one per shop.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "userID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req order.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apperr.Validation("invalid request body"))
		return
	}

	orders, err := h.svc.PlaceOrder(r.Context(), userID, &req)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, orders)
}

func (h *OrderHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "userID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	orders, err := h.svc.GetUserOrders(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	orderID, err := int64URLParam(r, "orderID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	ord, err := h.svc.GetOrderDetails(r.Context(), orderID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.GetAllOrders(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

// CancelOrder cancels an order. An optional user_id query parameter turns on
// the ownership check; without it the call is treated as administrative.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := int64URLParam(r, "orderID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var userID *int64
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, apperr.Validation("invalid user_id: %s", raw))
			return
		}
		userID = &id
	}

	if err := h.svc.CancelOrder(r.Context(), orderID, userID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "order cancelled successfully"})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := int64URLParam(r, "orderID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apperr.Validation("invalid request body"))
		return
	}

	ord, err := h.svc.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *OrderHandler) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	orderID, err := int64URLParam(r, "orderID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.svc.MarkOrderPaid(r.Context(), orderID); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "order marked as paid"})
}

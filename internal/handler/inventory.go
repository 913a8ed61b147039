package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/inventory"
)

type InventoryHandler struct {
	svc inventory.Service
}

func NewInventoryHandler(svc inventory.Service) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	productID, err := int64URLParam(r, "productID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	inv, err := h.svc.GetInventory(r.Context(), productID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, inv)
}

// InitializeInventory resets the product's record to the given quantity with
// nothing reserved.
func (h *InventoryHandler) InitializeInventory(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.Initialize)
}

func (h *InventoryHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.AddStock)
}

func (h *InventoryHandler) DecreaseStock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.DecreaseStock)
}

func (h *InventoryHandler) ReserveStock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.ReserveStock)
}

func (h *InventoryHandler) ReleaseReserved(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.ReleaseReserved)
}

func (h *InventoryHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, productID int64, qty int) (*inventory.Inventory, error)) {
	productID, err := int64URLParam(r, "productID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, apperr.Validation("invalid request body"))
		return
	}

	inv, err := op(r.Context(), productID, req.Quantity)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, inv)
}

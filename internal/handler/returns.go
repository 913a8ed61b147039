package handler

import (
	"encoding/json"
	"net/http"

	"github.com/SunlovingShadow/Ecom29112025/internal/apperr"
	"github.com/SunlovingShadow/Ecom29112025/internal/returns"
)

type ReturnsHandler struct {
	svc returns.Service
}

func NewReturnsHandler(svc returns.Service) *ReturnsHandler {
	return &ReturnsHandler{svc: svc}
}

func (h *ReturnsHandler) RequestReturn(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "userID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var input returns.RequestReturnInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, apperr.Validation("invalid request body"))
		return
	}

	req, err := h.svc.RequestReturn(r.Context(), userID, &input)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, req)
}

func (h *ReturnsHandler) GetUserReturns(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "userID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	requests, err := h.svc.GetUserReturns(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, requests)
}

func (h *ReturnsHandler) GetReturnByOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := int64URLParam(r, "userID")
	if err != nil {
		respondWithError(w, err)
		return
	}
	orderID, err := int64URLParam(r, "orderID")
	if err != nil {
		respondWithError(w, err)
		return
	}

	req, err := h.svc.GetReturnByOrderID(r.Context(), userID, orderID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, req)
}

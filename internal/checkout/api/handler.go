package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-pos/internal/checkout"
	"ms-pos/internal/inventory"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *checkout.Service
	Logger  *logger.Logger
}

func NewHandler(service *checkout.Service, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

// Checkout commits a cart as one atomic order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "Checkout: received request")

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.Logger.Debug("API", fmt.Sprintf("Checkout: event=%s lines=%d", req.EventID, len(req.Lines)))

	resp, err := h.Service.Checkout(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	h.Logger.LogCheckout("COMMITTED", resp.OrderID, fmt.Sprintf("total=%.2f", resp.Total))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", "Checkout: response sent successfully")
}

// GetOrder returns the receipt reconstructed from the sales ledger.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	receipt, err := h.Service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: order not found: %v", err))
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(receipt); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrder: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", "GetOrder: response sent successfully")
}

// writeCheckoutError maps domain errors onto HTTP statuses. A stock conflict
// carries the full failure list so the terminal can show every shortage.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	var conflict *checkout.StockConflictError
	if errors.As(err, &conflict) {
		h.Logger.Warn("API", fmt.Sprintf("Checkout: stock conflict: %v", conflict))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":    "insufficient stock",
			"failures": conflict.Failures,
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, inventory.ErrInvalidQty):
		h.Logger.Warn("API", fmt.Sprintf("Checkout: rejected cart: %v", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, checkout.ErrNoOpenDay), errors.Is(err, checkout.ErrArchived):
		h.Logger.Warn("API", fmt.Sprintf("Checkout: precondition failed: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, checkout.ErrItemsLocked):
		h.Logger.Warn("API", fmt.Sprintf("Checkout: items locked: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, inventory.ErrItemNotFound):
		h.Logger.Warn("API", fmt.Sprintf("Checkout: unknown item: %v", err))
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inventory.ErrItemInactive):
		h.Logger.Warn("API", fmt.Sprintf("Checkout: retired item: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Logger.Error("API", fmt.Sprintf("Checkout: transaction failed: %v", err))
		http.Error(w, "Checkout failed: "+err.Error(), http.StatusInternalServerError)
	}
}

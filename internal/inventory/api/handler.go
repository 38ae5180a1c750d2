package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-pos/internal/inventory"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Ledger *inventory.Ledger
	Logger *logger.Logger
}

func NewHandler(ledger *inventory.Ledger, log *logger.Logger) *Handler {
	return &Handler{
		Ledger: ledger,
		Logger: log,
	}
}

// AddItem registers a new catalog item for an event.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("AddItem: eventId=%s", eventID))

	var item models.EventItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddItem: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	item.EventID = eventID
	if item.ID == "" || item.Name == "" {
		h.Logger.Warn("API", "AddItem: item id and name are required")
		http.Error(w, "Item id and name are required", http.StatusBadRequest)
		return
	}

	created, err := h.Ledger.AddItem(r.Context(), item)
	if err != nil {
		h.writeInventoryError(w, "AddItem", err)
		return
	}
	h.Logger.LogStock("ADDED", created.ID, fmt.Sprintf("%s x%d", created.Name, created.StartingQuantity))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ListItems returns the event's catalog. Retired items are included only
// when ?include_retired=true.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	includeRetired := r.URL.Query().Get("include_retired") == "true"
	h.Logger.Info("API", fmt.Sprintf("ListItems: eventId=%s include_retired=%t", eventID, includeRetired))

	items, err := h.Ledger.Items(r.Context(), eventID, includeRetired)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListItems: failed: %v", err))
		http.Error(w, "Could not list items: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// StockLevels returns remaining counts for every active item of an event.
func (h *Handler) StockLevels(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("StockLevels: eventId=%s", eventID))

	levels, err := h.Ledger.StockLevels(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StockLevels: failed: %v", err))
		http.Error(w, "Could not read stock levels: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(levels)
}

// Restock sets a new starting quantity for the next selling day.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	h.Logger.Info("API", fmt.Sprintf("Restock: itemId=%s", itemID))

	var req struct {
		StartingQuantity int `json:"starting_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Restock: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Ledger.Restock(r.Context(), itemID, req.StartingQuantity); err != nil {
		h.writeInventoryError(w, "Restock", err)
		return
	}
	h.Logger.LogStock("RESTOCKED", itemID, fmt.Sprintf("starting_quantity=%d", req.StartingQuantity))

	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem deletes an item that has never sold.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	h.Logger.Info("API", fmt.Sprintf("RemoveItem: itemId=%s", itemID))

	if err := h.Ledger.RemoveItem(r.Context(), itemID); err != nil {
		h.writeInventoryError(w, "RemoveItem", err)
		return
	}
	h.Logger.LogStock("REMOVED", itemID, "item deleted")

	w.WriteHeader(http.StatusNoContent)
}

// RetireItem deactivates an item while keeping its sales history.
func (h *Handler) RetireItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	h.Logger.Info("API", fmt.Sprintf("RetireItem: itemId=%s", itemID))

	if err := h.Ledger.RetireItem(r.Context(), itemID); err != nil {
		h.writeInventoryError(w, "RetireItem", err)
		return
	}
	h.Logger.LogStock("RETIRED", itemID, "item retired")

	w.WriteHeader(http.StatusNoContent)
}

// AddDeal registers a bundle-pricing display hint for an event.
func (h *Handler) AddDeal(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("AddDeal: eventId=%s", eventID))

	var deal models.Deal
	if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddDeal: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	deal.EventID = eventID
	if deal.ID == "" || deal.Name == "" {
		h.Logger.Warn("API", "AddDeal: deal id and name are required")
		http.Error(w, "Deal id and name are required", http.StatusBadRequest)
		return
	}

	created, err := h.Ledger.AddDeal(r.Context(), deal)
	if err != nil {
		h.writeInventoryError(w, "AddDeal", err)
		return
	}
	h.Logger.LogStock("DEAL", created.ID, created.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// ListDeals returns the event's bundle-pricing hints.
func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("ListDeals: eventId=%s", eventID))

	deals, err := h.Ledger.Deals(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListDeals: failed: %v", err))
		http.Error(w, "Could not list deals: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deals)
}

func (h *Handler) writeInventoryError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, inventory.ErrItemNotFound):
		h.Logger.Warn("API", fmt.Sprintf("%s: item not found: %v", op, err))
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inventory.ErrInvalidQty):
		h.Logger.Warn("API", fmt.Sprintf("%s: invalid quantity: %v", op, err))
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inventory.ErrDayOpen),
		errors.Is(err, inventory.ErrRestockBelowSold),
		errors.Is(err, inventory.ErrItemHasSales),
		errors.Is(err, inventory.ErrItemInactive),
		errors.Is(err, inventory.ErrEventArchived):
		h.Logger.Warn("API", fmt.Sprintf("%s: precondition failed: %v", op, err))
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: failed: %v", op, err))
		http.Error(w, op+" failed: "+err.Error(), http.StatusInternalServerError)
	}
}

package api

import (
	"encoding/json"
	"fmt"
	"ms-pos/internal/logger"
	"ms-pos/internal/metrics"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *metrics.Service
	Logger  *logger.Logger
}

func NewHandler(service *metrics.Service, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

// LiveDay returns KPIs for the currently open selling day.
func (h *Handler) LiveDay(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("LiveDay: eventId=%s", eventID))

	m, err := h.Service.LiveDay(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("LiveDay: failed: %v", err))
		http.Error(w, "Could not project live metrics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

// EventToDate returns KPIs accumulated over closed days plus the live day.
func (h *Handler) EventToDate(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("EventToDate: eventId=%s", eventID))

	m, err := h.Service.EventToDate(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("EventToDate: failed: %v", err))
		http.Error(w, "Could not project event metrics: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

// TopItems ranks the event's items by units sold or revenue.
func (h *Handler) TopItems(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	rankBy := r.URL.Query().Get("rank_by")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	h.Logger.Info("API", fmt.Sprintf("TopItems: eventId=%s rank_by=%s limit=%d", eventID, rankBy, limit))

	rows, err := h.Service.TopItems(r.Context(), eventID, rankBy, limit)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TopItems: failed: %v", err))
		http.Error(w, "Could not rank items: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

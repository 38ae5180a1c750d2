package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"ms-pos/internal/logger"
	"ms-pos/internal/summary"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Aggregator *summary.Aggregator
	Logger     *logger.Logger
}

func NewHandler(aggregator *summary.Aggregator, log *logger.Logger) *Handler {
	return &Handler{
		Aggregator: aggregator,
		Logger:     log,
	}
}

// ListSummaries returns every closed-day snapshot for an event, oldest first.
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("ListSummaries: eventId=%s", eventID))

	summaries, err := h.Aggregator.SummariesForEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListSummaries: failed: %v", err))
		http.Error(w, "Could not list day summaries: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// GetSummary returns one day's snapshot.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	dayNumber, err := strconv.Atoi(chi.URLParam(r, "dayNumber"))
	if err != nil || dayNumber < 1 {
		http.Error(w, "Invalid day number", http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("GetSummary: eventId=%s day=%d", eventID, dayNumber))

	daySummary, err := h.Aggregator.Summary(r.Context(), eventID, dayNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Day summary not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetSummary: failed: %v", err))
		http.Error(w, "Could not read day summary: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(daySummary)
}

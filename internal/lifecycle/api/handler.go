package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-pos/internal/lifecycle"
	"ms-pos/internal/logger"
	"ms-pos/internal/models"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *lifecycle.Service
	Logger  *logger.Logger
}

func NewHandler(service *lifecycle.Service, log *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

// RegisterEvent ingests an event definition and its planned days.
func (h *Handler) RegisterEvent(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "RegisterEvent: received request")

	var req struct {
		Event models.Event      `json:"event"`
		Days  []models.EventDay `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterEvent: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Event.ID == "" || req.Event.Name == "" {
		h.Logger.Warn("API", "RegisterEvent: event id and name are required")
		http.Error(w, "Event id and name are required", http.StatusBadRequest)
		return
	}

	event, err := h.Service.RegisterEvent(r.Context(), req.Event, req.Days)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RegisterEvent: failed: %v", err))
		http.Error(w, "Could not register event: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.Logger.LogDay("REGISTERED", event.ID, event.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

// StartDay opens the next selling day for an event.
func (h *Handler) StartDay(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("StartDay: eventId=%s", eventID))

	event, err := h.Service.StartDay(r.Context(), eventID)
	if err != nil {
		h.writeLifecycleError(w, "StartDay", err)
		return
	}
	h.Logger.LogDay("OPENED", eventID, fmt.Sprintf("day %d", event.CurrentDay))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// EndDay closes the open day and returns its summary snapshot.
func (h *Handler) EndDay(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("EndDay: eventId=%s", eventID))

	daySummary, err := h.Service.EndDay(r.Context(), eventID)
	if err != nil {
		h.writeLifecycleError(w, "EndDay", err)
		return
	}
	h.Logger.LogDay("CLOSED", eventID, fmt.Sprintf("day %d revenue=%.2f", daySummary.DayNumber, daySummary.Revenue))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(daySummary)
}

// CompleteEvent finishes the event, closing an open day first if needed.
func (h *Handler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("CompleteEvent: eventId=%s", eventID))

	event, err := h.Service.CompleteEvent(r.Context(), eventID)
	if err != nil {
		h.writeLifecycleError(w, "CompleteEvent", err)
		return
	}
	h.Logger.LogDay("COMPLETED", eventID, event.Name)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// ArchiveEvent soft-deletes the event.
func (h *Handler) ArchiveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("ArchiveEvent: eventId=%s", eventID))

	if err := h.Service.ArchiveEvent(r.Context(), eventID); err != nil {
		h.writeLifecycleError(w, "ArchiveEvent", err)
		return
	}
	h.Logger.LogDay("ARCHIVED", eventID, "event archived")

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("GetEvent: eventId=%s", eventID))

	event, err := h.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.writeLifecycleError(w, "GetEvent", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	h.Logger.Info("API", fmt.Sprintf("ListEvents: include_archived=%t", includeArchived))

	events, err := h.Service.ListEvents(r.Context(), includeArchived)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: failed: %v", err))
		http.Error(w, "Could not list events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrEventNotFound):
		h.Logger.Warn("API", fmt.Sprintf("%s: event not found: %v", op, err))
		http.Error(w, err.Error(), http.StatusNotFound)
	case lifecycle.IsPrecondition(err):
		h.Logger.Warn("API", fmt.Sprintf("%s: precondition failed: %v", op, err))
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: failed: %v", op, err))
		http.Error(w, op+" failed: "+err.Error(), http.StatusInternalServerError)
	}
}

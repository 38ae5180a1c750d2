package api

import (
	"encoding/json"
	"fmt"
	"ms-pos/internal/logger"
	"ms-pos/internal/sse"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SSEHandler streams live stock levels to terminals watching an event.
type SSEHandler struct {
	Logger  *logger.Logger
	Emitter *sse.StockEventEmitter
}

func NewSSEHandler(log *logger.Logger, emitter *sse.StockEventEmitter) *SSEHandler {
	return &SSEHandler{
		Logger:  log,
		Emitter: emitter,
	}
}

// HandleEventStock streams stock updates for a specific event. Levels are
// advisory; checkout always re-validates against stored counters.
func (h *SSEHandler) HandleEventStock(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if eventID == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	h.setupSSEHeaders(w)

	// Context cancels when the client disconnects
	ctx := r.Context()

	updateChan := h.Emitter.SubscribeToEvent(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"eventID\":\"%s\"}\n\n", eventID)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to stock feed for event: %s", eventID))

	for {
		select {
		case update, ok := <-updateChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for event: %s", eventID))
				return
			}

			jsonData, err := json.Marshal(update)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize stock update: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: stock\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from stock feed for: %s", eventID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

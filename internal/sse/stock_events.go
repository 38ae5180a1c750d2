package sse

import (
	"context"
	"ms-pos/internal/models"
	"sync"
	"time"
)

// StockUpdate is one push of fresh advisory stock levels for an event.
type StockUpdate struct {
	EventID string              `json:"event_id"`
	Levels  []models.StockLevel `json:"levels"`
	At      time.Time           `json:"at"`
}

// StockEventEmitter manages SSE connections and broadcasts stock changes to
// every terminal watching an event, so cached remaining counts go stale for
// seconds instead of minutes. Terminals still re-validate at checkout.
type StockEventEmitter struct {
	eventClients     map[string][]chan StockUpdate
	eventClientMutex sync.RWMutex
}

func NewStockEventEmitter() *StockEventEmitter {
	return &StockEventEmitter{
		eventClients: make(map[string][]chan StockUpdate),
	}
}

// SubscribeToEvent adds a client to the event's stock update feed.
func (e *StockEventEmitter) SubscribeToEvent(ctx context.Context, eventID string) chan StockUpdate {
	clientChan := make(chan StockUpdate, 10)

	e.eventClientMutex.Lock()
	e.eventClients[eventID] = append(e.eventClients[eventID], clientChan)
	e.eventClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeEventClient(eventID, clientChan)
	}()

	return clientChan
}

// EmitStockUpdate broadcasts fresh levels to all subscribed clients.
func (e *StockEventEmitter) EmitStockUpdate(eventID string, levels []models.StockLevel) {
	update := StockUpdate{EventID: eventID, Levels: levels, At: time.Now()}

	e.eventClientMutex.RLock()
	clients := e.eventClients[eventID]
	e.eventClientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send: a slow terminal skips an update rather than
		// stalling the emitter.
		select {
		case clientChan <- update:
		default:
		}
	}
}

func (e *StockEventEmitter) removeEventClient(eventID string, clientChan chan StockUpdate) {
	e.eventClientMutex.Lock()
	defer e.eventClientMutex.Unlock()

	clients := e.eventClients[eventID]
	for i, ch := range clients {
		if ch == clientChan {
			e.eventClients[eventID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.eventClients[eventID]) == 0 {
		delete(e.eventClients, eventID)
	}
}

// GetEventClientCount returns the number of clients watching an event.
func (e *StockEventEmitter) GetEventClientCount(eventID string) int {
	e.eventClientMutex.RLock()
	defer e.eventClientMutex.RUnlock()
	return len(e.eventClients[eventID])
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EventItem is one sellable unit of an event's catalog. StartingQuantity is
// the stock available for the current day; QuantitySold counts units sold
// against the current restock and is only ever incremented by the ledger.
type EventItem struct {
	bun.BaseModel `bun:"table:event_items"`

	ID               string    `bun:"id,pk" json:"id"`
	EventID          string    `bun:"event_id,notnull" json:"event_id"`
	Name             string    `bun:"name,notnull" json:"name"`
	Category         string    `bun:"category" json:"category"`
	UnitPrice        float64   `bun:"unit_price,notnull" json:"unit_price"`
	UnitCost         float64   `bun:"unit_cost,notnull" json:"unit_cost"`
	StartingQuantity int       `bun:"starting_quantity,notnull" json:"starting_quantity"`
	QuantitySold     int       `bun:"quantity_sold,notnull" json:"quantity_sold"`
	Active           bool      `bun:"active,notnull" json:"active"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
}

// Remaining is the advisory stock count. The authoritative check happens in
// the conditional update at commit time, never against this value.
func (i *EventItem) Remaining() int {
	return i.StartingQuantity - i.QuantitySold
}

// StockLevel is the per-item view pushed to POS terminals after a checkout
// so they can refresh their cached remaining counts.
type StockLevel struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Sale is one immutable ledger row: one item within one order. Rows are
// created by checkout only and never updated or deleted.
type Sale struct {
	bun.BaseModel `bun:"table:sales"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	EventItemID string    `bun:"event_item_id,notnull" json:"event_item_id"`
	OrderID     string    `bun:"order_id,notnull" json:"order_id"`
	Quantity    int       `bun:"quantity,notnull" json:"quantity"`
	UnitPrice   float64   `bun:"unit_price,notnull" json:"unit_price"`
	TotalPrice  float64   `bun:"total_price,notnull" json:"total_price"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// CartLine is one requested line of an ephemeral client-side cart.
type CartLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CheckoutRequest carries the whole cart into the engine in one shot; the
// cart is never persisted on its own.
type CheckoutRequest struct {
	EventID string     `json:"event_id"`
	Lines   []CartLine `json:"lines"`
}

// CheckoutResponse reports the committed order plus the updated remaining
// counts so the terminal can refresh its advisory view immediately.
type CheckoutResponse struct {
	OrderID   string       `json:"order_id"`
	Total     float64      `json:"total"`
	Remaining []StockLevel `json:"remaining"`
	QRCode    []byte       `json:"qr_code,omitempty"`
}

// OrderReceipt reconstructs one logical order from its sale rows.
type OrderReceipt struct {
	OrderID   string    `json:"order_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	Total     float64   `json:"total"`
	Items     int       `json:"items"`
	Lines     []Sale    `json:"lines"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Deal is bundle-pricing metadata authored by the catalog side. It is served
// to terminals as a display hint only; checkout never applies it.
type Deal struct {
	bun.BaseModel `bun:"table:deals"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id,notnull" json:"event_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	ItemIDs     []string  `bun:"item_ids,array" json:"item_ids"`
	BundlePrice float64   `bun:"bundle_price,notnull" json:"bundle_price"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

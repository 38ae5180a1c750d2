package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DaySummary is the immutable snapshot written exactly once per closed day.
// (event_id, day_number) is unique so a retried close cannot double-insert.
type DaySummary struct {
	bun.BaseModel `bun:"table:day_summaries"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	DayNumber int       `bun:"day_number,notnull" json:"day_number"`
	OpenTime  time.Time `bun:"open_time,notnull" json:"open_time"`
	CloseTime time.Time `bun:"close_time,notnull" json:"close_time"`
	Revenue   float64   `bun:"revenue,notnull" json:"revenue"`
	ItemsSold int       `bun:"items_sold,notnull" json:"items_sold"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

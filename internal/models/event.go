package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event statuses. Archived is intentionally not a status: it is an
// orthogonal soft-delete flag that can be set from any state.
const (
	EventStatusDraft     = "draft"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string     `bun:"id,pk" json:"id"`
	Name         string     `bun:"name,notnull" json:"name"`
	Location     string     `bun:"location" json:"location"`
	Status       string     `bun:"status,notnull" json:"status"`
	Archived     bool       `bun:"archived,notnull" json:"archived"`
	CurrentDay   int        `bun:"current_day,notnull" json:"current_day"`
	DayOpenTime  *time.Time `bun:"day_open_time,nullzero" json:"day_open_time,omitempty"`
	DayCloseTime *time.Time `bun:"day_close_time,nullzero" json:"day_close_time,omitempty"`
	CreatedAt    time.Time  `bun:"created_at,notnull" json:"created_at"`
}

// EventDay is one scheduled selling day, authored by the catalog side.
type EventDay struct {
	bun.BaseModel `bun:"table:event_days"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID   string    `bun:"event_id,notnull" json:"event_id"`
	Date      time.Time `bun:"date,notnull" json:"date"`
	OpenTime  string    `bun:"open_time" json:"open_time"`
	CloseTime string    `bun:"close_time" json:"close_time"`
}

// DayState is a tagged view over the day_open_time/day_close_time pair.
// Either the day is closed, or it is open since a known instant; the raw
// nullable timestamps are never inspected outside this method.
type DayState struct {
	Open  bool      `json:"open"`
	Since time.Time `json:"since,omitempty"`
}

// DayState reports whether a selling day is currently open. A day counts
// as open when it has an open stamp and no close stamp for the same day.
func (e *Event) DayState() DayState {
	if e.DayOpenTime != nil && e.DayCloseTime == nil {
		return DayState{Open: true, Since: *e.DayOpenTime}
	}
	return DayState{}
}

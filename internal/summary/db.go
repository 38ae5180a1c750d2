package summary

import (
	"context"
	"database/sql"
	"errors"
	"ms-pos/internal/models"
	"time"

	"github.com/uptrace/bun"
)

// DB handles day-summary persistence and the close-time sales aggregation.
type DB struct {
	bun bun.IDB
}

func NewDB(idb bun.IDB) *DB {
	return &DB{bun: idb}
}

// InsertSummary appends the snapshot unless one already exists for this
// (event, day). The unique index plus DO NOTHING makes a retried close a
// no-op instead of a duplicate row.
func (db *DB) InsertSummary(ctx context.Context, s *models.DaySummary) (bool, error) {
	res, err := db.bun.NewInsert().
		Model(s).
		On("CONFLICT (event_id, day_number) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (db *DB) GetSummary(ctx context.Context, eventID string, dayNumber int) (*models.DaySummary, error) {
	var s models.DaySummary
	err := db.bun.NewSelect().
		Model(&s).
		Where("event_id = ?", eventID).
		Where("day_number = ?", dayNumber).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) GetSummariesByEvent(ctx context.Context, eventID string) ([]models.DaySummary, error) {
	var summaries []models.DaySummary
	err := db.bun.NewSelect().
		Model(&summaries).
		Where("event_id = ?", eventID).
		Order("day_number ASC").
		Scan(ctx)
	return summaries, err
}

// DayTotals holds the aggregated revenue and unit count for one window.
type DayTotals struct {
	Revenue   float64 `bun:"revenue"`
	ItemsSold int     `bun:"items_sold"`
}

// AggregateSales sums the ledger over [from, to) for items belonging to the
// event. Zero rows aggregate to zero totals, not an error.
func (db *DB) AggregateSales(ctx context.Context, eventID string, from, to time.Time) (DayTotals, error) {
	var totals DayTotals
	err := db.bun.NewRaw(`
		SELECT
			COALESCE(SUM(s.total_price), 0.0) AS revenue,
			COALESCE(SUM(s.quantity), 0) AS items_sold
		FROM sales s
		JOIN event_items i ON i.id = s.event_item_id
		WHERE i.event_id = ?
		  AND s.created_at >= ?
		  AND s.created_at < ?
	`, eventID, from, to).Scan(ctx, &totals)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return DayTotals{}, err
	}
	return totals, nil
}

package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// DB runs the read-side aggregate queries. Nothing here mutates state.
type DB struct {
	bun bun.IDB
}

func NewDB(idb bun.IDB) *DB {
	return &DB{bun: idb}
}

// LiveAggregates holds the raw live-day reduction over the sales ledger.
type LiveAggregates struct {
	Revenue    float64 `bun:"revenue"`
	ItemsSold  int     `bun:"items_sold"`
	OrderCount int     `bun:"order_count"`
}

// GetLiveAggregates reduces sales recorded since the day opened. An event
// with no sales yet aggregates to zeros.
func (db *DB) GetLiveAggregates(ctx context.Context, eventID string, since time.Time) (LiveAggregates, error) {
	var agg LiveAggregates
	err := db.bun.NewRaw(`
		SELECT
			COALESCE(SUM(s.total_price), 0.0) AS revenue,
			COALESCE(SUM(s.quantity), 0) AS items_sold,
			COUNT(DISTINCT s.order_id) AS order_count
		FROM sales s
		JOIN event_items i ON i.id = s.event_item_id
		WHERE i.event_id = ?
		  AND s.created_at >= ?
	`, eventID, since).Scan(ctx, &agg)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return LiveAggregates{}, err
	}
	return agg, nil
}

// SummaryTotals holds the reduction over all closed-day snapshots.
type SummaryTotals struct {
	Revenue    float64 `bun:"revenue"`
	ItemsSold  int     `bun:"items_sold"`
	DaysClosed int     `bun:"days_closed"`
}

func (db *DB) GetSummaryTotals(ctx context.Context, eventID string) (SummaryTotals, error) {
	var totals SummaryTotals
	err := db.bun.NewRaw(`
		SELECT
			COALESCE(SUM(revenue), 0.0) AS revenue,
			COALESCE(SUM(items_sold), 0) AS items_sold,
			COUNT(*) AS days_closed
		FROM day_summaries
		WHERE event_id = ?
	`, eventID).Scan(ctx, &totals)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return SummaryTotals{}, err
	}
	return totals, nil
}

// ItemPerformanceRow is one item's full-event sales performance.
type ItemPerformanceRow struct {
	ItemID    string  `bun:"item_id" json:"item_id"`
	Name      string  `bun:"name" json:"name"`
	Category  string  `bun:"category" json:"category"`
	Sold      int     `bun:"sold" json:"sold"`
	Remaining int     `bun:"remaining" json:"remaining"`
	Revenue   float64 `bun:"revenue" json:"revenue"`
	Margin    float64 `bun:"margin" json:"margin"`
}

// GetItemPerformance ranks the event's items. rankBy is "quantity" or
// "revenue"; anything else falls back to quantity. Revenue and margin come
// from the ledger's price snapshots, so later price edits cannot rewrite
// history; sold/remaining come from the live counters.
func (db *DB) GetItemPerformance(ctx context.Context, eventID string, rankBy string, limit int) ([]ItemPerformanceRow, error) {
	orderBy := "sold DESC"
	if strings.EqualFold(rankBy, "revenue") {
		orderBy = "revenue DESC"
	}

	query := fmt.Sprintf(`
		SELECT
			i.id AS item_id,
			i.name AS name,
			i.category AS category,
			i.quantity_sold AS sold,
			i.starting_quantity - i.quantity_sold AS remaining,
			COALESCE(SUM(s.total_price), 0.0) AS revenue,
			COALESCE(SUM(s.total_price), 0.0) - i.unit_cost * i.quantity_sold AS margin
		FROM event_items i
		LEFT JOIN sales s ON s.event_item_id = i.id
		WHERE i.event_id = ?
		GROUP BY i.id, i.name, i.category, i.quantity_sold, i.starting_quantity, i.unit_cost
		ORDER BY %s, i.name ASC
	`, orderBy)
	args := []interface{}{eventID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []ItemPerformanceRow
	err := db.bun.NewRaw(query, args...).Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package summary_test

import (
	"context"
	"database/sql"
	"ms-pos/internal/models"
	"ms-pos/internal/summary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*summary.Aggregator, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, m := range []interface{}{(*models.EventItem)(nil), (*models.Sale)(nil), (*models.DaySummary)(nil)} {
		if _, err := bunDB.NewCreateTable().Model(m).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}

	// The conflict target for the idempotent snapshot insert.
	_, err = bunDB.ExecContext(ctx, "CREATE UNIQUE INDEX uq_day_summaries_event_day ON day_summaries (event_id, day_number)")
	require.NoError(t, err)

	return summary.NewAggregator(summary.NewDB(bunDB)), bunDB
}

func seedSales(t *testing.T, bunDB *bun.DB, saleTimes []time.Time) {
	ctx := context.Background()

	items := []models.EventItem{
		{ID: "item-bread", EventID: "event-1", Name: "Sourdough Loaf", UnitPrice: 8, StartingQuantity: 50, Active: true, CreatedAt: time.Now()},
		{ID: "item-other", EventID: "event-other", Name: "Stray Item", UnitPrice: 3, StartingQuantity: 50, Active: true, CreatedAt: time.Now()},
	}
	_, err := bunDB.NewInsert().Model(&items).Exec(ctx)
	require.NoError(t, err)

	for i, at := range saleTimes {
		sale := models.Sale{
			EventItemID: "item-bread",
			OrderID:     "order-" + string(rune('A'+i)),
			Quantity:    2,
			UnitPrice:   8,
			TotalPrice:  16,
			CreatedAt:   at,
		}
		_, err := bunDB.NewInsert().Model(&sale).Exec(ctx)
		require.NoError(t, err)
	}

	// A sale from an unrelated event; no aggregation may ever count it.
	stray := models.Sale{
		EventItemID: "item-other",
		OrderID:     "order-stray",
		Quantity:    4,
		UnitPrice:   3,
		TotalPrice:  12,
		CreatedAt:   time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
	}
	_, err = bunDB.NewInsert().Model(&stray).Exec(ctx)
	require.NoError(t, err)
}

func TestCloseDay_SnapshotsTotals(t *testing.T) {
	aggregator, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	open := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	close := open.Add(8 * time.Hour)
	seedSales(t, bunDB, []time.Time{open.Add(time.Hour), open.Add(2 * time.Hour), open.Add(3 * time.Hour)})

	s, err := aggregator.CloseDay(ctx, "event-1", 1, open, close)
	require.NoError(t, err)
	assert.Equal(t, 48.0, s.Revenue)
	assert.Equal(t, 6, s.ItemsSold)
	assert.Equal(t, 1, s.DayNumber)
}

func TestCloseDay_RepeatKeepsOriginalSnapshot(t *testing.T) {
	aggregator, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	open := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	close := open.Add(8 * time.Hour)
	seedSales(t, bunDB, []time.Time{open.Add(time.Hour)})

	first, err := aggregator.CloseDay(ctx, "event-1", 1, open, close)
	require.NoError(t, err)
	assert.Equal(t, 16.0, first.Revenue)

	// More ledger rows appear after the close; the retried close must hand
	// back the original snapshot, not re-aggregate.
	late := models.Sale{EventItemID: "item-bread", OrderID: "order-late", Quantity: 2, UnitPrice: 8, TotalPrice: 16, CreatedAt: open.Add(2 * time.Hour)}
	_, err = bunDB.NewInsert().Model(&late).Exec(ctx)
	require.NoError(t, err)

	second, err := aggregator.CloseDay(ctx, "event-1", 1, open, close)
	require.NoError(t, err)
	assert.Equal(t, first.Revenue, second.Revenue)
	assert.Equal(t, first.ItemsSold, second.ItemsSold)

	summaries, err := aggregator.SummariesForEvent(ctx, "event-1")
	require.NoError(t, err)
	assert.Len(t, summaries, 1, "Repeated close must never append a second row")
}

func TestCloseDay_ZeroSalesDay(t *testing.T) {
	aggregator, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedSales(t, bunDB, nil)

	open := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	s, err := aggregator.CloseDay(ctx, "event-1", 1, open, open.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Revenue)
	assert.Equal(t, 0, s.ItemsSold)
}

func TestCloseDay_WindowIsHalfOpen(t *testing.T) {
	aggregator, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	open := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	close := open.Add(8 * time.Hour)
	// One sale exactly at open, one inside, one exactly at close. The close
	// instant belongs to the next window.
	seedSales(t, bunDB, []time.Time{open, open.Add(time.Hour), close})

	s, err := aggregator.CloseDay(ctx, "event-1", 1, open, close)
	require.NoError(t, err)
	assert.Equal(t, 4, s.ItemsSold)
	assert.Equal(t, 32.0, s.Revenue)
}

func TestSummariesForEvent_OrderedByDay(t *testing.T) {
	aggregator, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedSales(t, bunDB, nil)

	open := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	for _, day := range []int{2, 1, 3} {
		_, err := aggregator.CloseDay(ctx, "event-1", day, open, open.Add(8*time.Hour))
		require.NoError(t, err)
	}

	summaries, err := aggregator.SummariesForEvent(ctx, "event-1")
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, 1, summaries[0].DayNumber)
	assert.Equal(t, 2, summaries[1].DayNumber)
	assert.Equal(t, 3, summaries[2].DayNumber)
}

func TestSummary_SingleDayLookup(t *testing.T) {
	aggregator, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	open := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	seedSales(t, bunDB, []time.Time{open.Add(time.Hour)})

	_, err := aggregator.CloseDay(ctx, "event-1", 1, open, open.Add(8*time.Hour))
	require.NoError(t, err)

	s, err := aggregator.Summary(ctx, "event-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 16.0, s.Revenue)

	_, err = aggregator.Summary(ctx, "event-1", 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

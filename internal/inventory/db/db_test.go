package db_test

import (
	"context"
	"database/sql"
	"ms-pos/internal/inventory/db"
	"ms-pos/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, m := range []interface{}{(*models.Event)(nil), (*models.EventItem)(nil), (*models.Sale)(nil)} {
		if _, err := bunDB.NewCreateTable().Model(m).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}

	return db.New(bunDB), bunDB
}

func seedItem(t *testing.T, bunDB *bun.DB, id string, starting, sold int) {
	ctx := context.Background()

	event := models.Event{
		ID:        "event-1",
		Name:      "Harvest Fair",
		Status:    models.EventStatusActive,
		CreatedAt: time.Now(),
	}
	_, _ = bunDB.NewInsert().Model(&event).Exec(ctx)

	item := models.EventItem{
		ID:               id,
		EventID:          "event-1",
		Name:             "Sourdough Loaf",
		Category:         "bread",
		UnitPrice:        8.0,
		UnitCost:         2.5,
		StartingQuantity: starting,
		QuantitySold:     sold,
		Active:           true,
		CreatedAt:        time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&item).Exec(ctx)
	require.NoError(t, err)
}

func TestIncrementSold_GuardHolds(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 5, 0)

	// Within stock
	ok, err := ledgerDB.IncrementSold(ctx, "item-1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// Exactly to the boundary
	ok, err = ledgerDB.IncrementSold(ctx, "item-1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// One past the boundary must match no row
	ok, err = ledgerDB.IncrementSold(ctx, "item-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	item, err := ledgerDB.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.QuantitySold)
	assert.Equal(t, 0, item.Remaining())
}

func TestIncrementSold_NeverOversells(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 5, 0)

	// Ten competing single-unit commits against five units of stock
	succeeded := 0
	for i := 0; i < 10; i++ {
		ok, err := ledgerDB.IncrementSold(ctx, "item-1", 1)
		require.NoError(t, err)
		if ok {
			succeeded++
		}
	}

	assert.Equal(t, 5, succeeded, "Exactly the available stock should sell")

	item, err := ledgerDB.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 5, item.QuantitySold)
}

func TestIncrementSold_RetiredItemRejected(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 5, 0)
	require.NoError(t, ledgerDB.SetItemActive(ctx, "item-1", false))

	ok, err := ledgerDB.IncrementSold(ctx, "item-1", 1)
	require.NoError(t, err)
	assert.False(t, ok, "Retired item must not sell")
}

func TestUpdateStartingQuantity_KeepsSoldCount(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 10, 7)

	ok, err := ledgerDB.UpdateStartingQuantity(ctx, "item-1", 40)
	require.NoError(t, err)
	assert.True(t, ok)

	item, err := ledgerDB.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 40, item.StartingQuantity)
	assert.Equal(t, 7, item.QuantitySold, "Restock must not reset sold count")
	assert.Equal(t, 33, item.Remaining())
}

func TestUpdateStartingQuantity_RefusesDropBelowSold(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 10, 7)

	// Seven already sold; a restock to five must match no row.
	ok, err := ledgerDB.UpdateStartingQuantity(ctx, "item-1", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	item, err := ledgerDB.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 10, item.StartingQuantity, "Refused restock must leave the row untouched")

	// Exactly the sold count is the boundary and is allowed.
	ok, err = ledgerDB.UpdateStartingQuantity(ctx, "item-1", 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStockLevels_ExcludesRetired(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 10, 4)

	croissant := models.EventItem{
		ID:               "item-2",
		EventID:          "event-1",
		Name:             "Butter Croissant",
		UnitPrice:        4.5,
		StartingQuantity: 20,
		Active:           false,
		CreatedAt:        time.Now(),
	}
	_, err := bunDB.NewInsert().Model(&croissant).Exec(ctx)
	require.NoError(t, err)

	levels, err := ledgerDB.StockLevels(ctx, "event-1")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "item-1", levels[0].ItemID)
	assert.Equal(t, 6, levels[0].Remaining)
}

func TestCountSalesByItem(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedItem(t, bunDB, "item-1", 10, 2)

	sales := []models.Sale{
		{EventItemID: "item-1", OrderID: "order-1", Quantity: 1, UnitPrice: 8, TotalPrice: 8, CreatedAt: time.Now()},
		{EventItemID: "item-1", OrderID: "order-2", Quantity: 1, UnitPrice: 8, TotalPrice: 8, CreatedAt: time.Now()},
	}
	_, err := bunDB.NewInsert().Model(&sales).Exec(ctx)
	require.NoError(t, err)

	count, err := ledgerDB.CountSalesByItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = ledgerDB.CountSalesByItem(ctx, "item-never-sold")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

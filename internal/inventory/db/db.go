package db

import (
	"context"
	"ms-pos/internal/models"

	"github.com/uptrace/bun"
)

// DB wraps a bun connection or transaction. Checkout builds one of these
// over its bun.Tx so the conditional increments join the same transaction.
type DB struct {
	Bun bun.IDB
}

func New(idb bun.IDB) *DB {
	return &DB{Bun: idb}
}

func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) GetItem(ctx context.Context, id string) (*models.EventItem, error) {
	var item models.EventItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemsByEvent returns the event's catalog, newest last. Retired items
// are excluded unless includeRetired is set.
func (d *DB) GetItemsByEvent(ctx context.Context, eventID string, includeRetired bool) ([]models.EventItem, error) {
	var items []models.EventItem
	q := d.Bun.NewSelect().
		Model(&items).
		Where("event_id = ?", eventID).
		Order("created_at ASC")
	if !includeRetired {
		q = q.Where("active = ?", true)
	}
	err := q.Scan(ctx)
	return items, err
}

func (d *DB) InsertItem(ctx context.Context, item *models.EventItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

// IncrementSold applies the oversell guard and the increment as one
// conditional UPDATE. A read-modify-write here would reintroduce the
// lost-update race between terminals, so the guard lives in the WHERE
// clause and the caller checks the affected row count.
func (d *DB) IncrementSold(ctx context.Context, itemID string, qty int) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.EventItem)(nil)).
		Set("quantity_sold = quantity_sold + ?", qty).
		Where("id = ?", itemID).
		Where("active = ?", true).
		Where("quantity_sold + ? <= starting_quantity", qty).
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

// UpdateStartingQuantity resets the stock available for the next day.
// quantity_sold is left untouched so sold counts survive a restock. The
// guard in the WHERE clause keeps starting_quantity from dropping below
// what has already sold; a false return means it matched no row.
func (d *DB) UpdateStartingQuantity(ctx context.Context, itemID string, qty int) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.EventItem)(nil)).
		Set("starting_quantity = ?", qty).
		Where("id = ?", itemID).
		Where("quantity_sold <= ?", qty).
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

func (d *DB) SetItemActive(ctx context.Context, itemID string, active bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.EventItem)(nil)).
		Set("active = ?", active).
		Where("id = ?", itemID).
		Exec(ctx)
	return err
}

// CountSalesByItem reports how many ledger rows reference an item; an item
// with any sales must be retired rather than deleted.
func (d *DB) CountSalesByItem(ctx context.Context, itemID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Sale)(nil)).
		Where("event_item_id = ?", itemID).
		Count(ctx)
}

func (d *DB) DeleteItem(ctx context.Context, itemID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.EventItem)(nil)).
		Where("id = ?", itemID).
		Exec(ctx)
	return err
}

func (d *DB) InsertDeal(ctx context.Context, deal *models.Deal) error {
	_, err := d.Bun.NewInsert().Model(deal).Exec(ctx)
	return err
}

// GetDealsByEvent returns the bundle-pricing hints shown on terminals.
func (d *DB) GetDealsByEvent(ctx context.Context, eventID string) ([]models.Deal, error) {
	var deals []models.Deal
	err := d.Bun.NewSelect().
		Model(&deals).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Scan(ctx)
	return deals, err
}

// StockLevels returns the advisory remaining count per active item.
func (d *DB) StockLevels(ctx context.Context, eventID string) ([]models.StockLevel, error) {
	var levels []models.StockLevel
	err := d.Bun.NewRaw(`
		SELECT
			id AS item_id,
			name,
			starting_quantity - quantity_sold AS remaining
		FROM event_items
		WHERE event_id = ? AND active
		ORDER BY name
	`, eventID).Scan(ctx, &levels)
	return levels, err
}

package db

import (
	"context"
	"database/sql"
	"ms-pos/internal/inventory"
	"ms-pos/internal/models"

	invdb "ms-pos/internal/inventory/db"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func New(b *bun.DB) *DB {
	return &DB{Bun: b}
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

// GetItems fetches the cart's items in one query.
func (d *DB) GetItems(ctx context.Context, ids []string) ([]models.EventItem, error) {
	var items []models.EventItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	return items, err
}

// CommitOrder applies a whole checkout as one transaction: a conditional
// quantity_sold increment per line plus the sale rows, all or nothing. Any
// line that fails its guard rolls the entire order back, so neither the
// counters nor the ledger can end up partially updated.
func (d *DB) CommitOrder(ctx context.Context, sales []models.Sale) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		ledger := invdb.New(tx)

		for _, sale := range sales {
			ok, err := ledger.IncrementSold(ctx, sale.EventItemID, sale.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return shortageError(ctx, ledger, sale)
			}
		}

		_, err := tx.NewInsert().Model(&sales).Exec(ctx)
		return err
	})
}

// shortageError re-reads the offending row inside the transaction to report
// the remaining count the guard saw.
func shortageError(ctx context.Context, ledger *invdb.DB, sale models.Sale) error {
	item, err := ledger.GetItem(ctx, sale.EventItemID)
	if err != nil {
		return err
	}
	return &inventory.InsufficientStockError{
		ItemID:    item.ID,
		Name:      item.Name,
		Requested: sale.Quantity,
		Remaining: item.Remaining(),
	}
}

func (d *DB) GetSalesByOrder(ctx context.Context, orderID string) ([]models.Sale, error) {
	var sales []models.Sale
	err := d.Bun.NewSelect().
		Model(&sales).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	return sales, err
}

// GetEventIDForOrder resolves the owning event through the order's items.
func (d *DB) GetEventIDForOrder(ctx context.Context, orderID string) (string, error) {
	var eventID string
	err := d.Bun.NewSelect().
		Column("i.event_id").
		Table("sales").
		Join("JOIN event_items i ON i.id = sales.event_item_id").
		Where("sales.order_id = ?", orderID).
		Limit(1).
		Scan(ctx, &eventID)
	return eventID, err
}

func (d *DB) StockLevels(ctx context.Context, eventID string) ([]models.StockLevel, error) {
	return invdb.New(d.Bun).StockLevels(ctx, eventID)
}

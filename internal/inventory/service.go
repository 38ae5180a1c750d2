package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ms-pos/internal/models"
	"time"
)

// DBLayer is the ledger's storage contract. IncrementSold must be a single
// conditional update: increment only if the resulting quantity_sold still
// fits within starting_quantity.
type DBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetItem(ctx context.Context, id string) (*models.EventItem, error)
	GetItemsByEvent(ctx context.Context, eventID string, includeRetired bool) ([]models.EventItem, error)
	InsertItem(ctx context.Context, item *models.EventItem) error
	IncrementSold(ctx context.Context, itemID string, qty int) (bool, error)
	UpdateStartingQuantity(ctx context.Context, itemID string, qty int) (bool, error)
	SetItemActive(ctx context.Context, itemID string, active bool) error
	CountSalesByItem(ctx context.Context, itemID string) (int, error)
	DeleteItem(ctx context.Context, itemID string) error
	StockLevels(ctx context.Context, eventID string) ([]models.StockLevel, error)
	InsertDeal(ctx context.Context, deal *models.Deal) error
	GetDealsByEvent(ctx context.Context, eventID string) ([]models.Deal, error)
}

// Ledger owns per-item stock counters and the oversell guard.
type Ledger struct {
	DB DBLayer
}

func NewLedger(db DBLayer) *Ledger {
	return &Ledger{DB: db}
}

// Reserve is the pure availability check against the authoritative stored
// counters. It takes no lock and moves no stock; Commit re-applies the same
// guard atomically, so a Reserve that passes can still lose the race.
func (l *Ledger) Reserve(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}

	item, err := l.DB.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return err
	}
	if !item.Active {
		return fmt.Errorf("%w: %s", ErrItemInactive, item.Name)
	}
	if qty > item.Remaining() {
		return &InsufficientStockError{
			ItemID:    item.ID,
			Name:      item.Name,
			Requested: qty,
			Remaining: item.Remaining(),
		}
	}
	return nil
}

// Commit atomically increments quantity_sold, guarded by the same
// precondition as Reserve. When the conditional update matches no row the
// item was either oversold concurrently, retired, or removed; the current
// row is re-read to report which.
func (l *Ledger) Commit(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}

	ok, err := l.DB.IncrementSold(ctx, itemID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	item, err := l.DB.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return err
	}
	if !item.Active {
		return fmt.Errorf("%w: %s", ErrItemInactive, item.Name)
	}
	return &InsufficientStockError{
		ItemID:    item.ID,
		Name:      item.Name,
		Requested: qty,
		Remaining: item.Remaining(),
	}
}

// Restock resets starting_quantity for the next selling day. Refused while
// a day is open; quantity_sold is deliberately left alone so historical
// sold counts survive the restock.
func (l *Ledger) Restock(ctx context.Context, itemID string, newStartingQuantity int) error {
	if newStartingQuantity < 0 {
		return ErrInvalidQty
	}

	item, err := l.DB.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
		}
		return err
	}

	event, err := l.DB.GetEvent(ctx, item.EventID)
	if err != nil {
		return err
	}
	if event.DayState().Open {
		return ErrDayOpen
	}
	if newStartingQuantity < item.QuantitySold {
		return fmt.Errorf("%w: %d already sold", ErrRestockBelowSold, item.QuantitySold)
	}

	// The conditional update re-applies the sold-count guard, so a sale
	// committed between the read above and this write cannot sneak
	// starting_quantity below quantity_sold.
	ok, err := l.DB.UpdateStartingQuantity(ctx, itemID, newStartingQuantity)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: item %s", ErrRestockBelowSold, itemID)
	}
	return nil
}

// AddItem registers a new catalog item. Catalog mutation, not part of the
// transactional sales path.
func (l *Ledger) AddItem(ctx context.Context, item models.EventItem) (*models.EventItem, error) {
	if item.StartingQuantity < 0 || item.UnitPrice < 0 {
		return nil, ErrInvalidQty
	}

	event, err := l.DB.GetEvent(ctx, item.EventID)
	if err != nil {
		return nil, err
	}
	if event.Archived {
		return nil, ErrEventArchived
	}

	item.Active = true
	item.QuantitySold = 0
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if err := l.DB.InsertItem(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes an item that has never sold. An item with sale rows is
// refused; callers must RetireItem instead so the ledger keeps its history.
func (l *Ledger) RemoveItem(ctx context.Context, itemID string) error {
	count, err := l.DB.CountSalesByItem(ctx, itemID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrItemHasSales
	}
	return l.DB.DeleteItem(ctx, itemID)
}

// RetireItem soft-deactivates an item: it disappears from checkout and
// stock views but its sales history stays intact.
func (l *Ledger) RetireItem(ctx context.Context, itemID string) error {
	return l.DB.SetItemActive(ctx, itemID, false)
}

func (l *Ledger) Items(ctx context.Context, eventID string, includeRetired bool) ([]models.EventItem, error) {
	return l.DB.GetItemsByEvent(ctx, eventID, includeRetired)
}

func (l *Ledger) StockLevels(ctx context.Context, eventID string) ([]models.StockLevel, error) {
	return l.DB.StockLevels(ctx, eventID)
}

// AddDeal registers a bundle-pricing hint. Deals are display metadata only;
// checkout totals always come from per-item unit prices.
func (l *Ledger) AddDeal(ctx context.Context, deal models.Deal) (*models.Deal, error) {
	if deal.BundlePrice < 0 || len(deal.ItemIDs) == 0 {
		return nil, ErrInvalidQty
	}

	event, err := l.DB.GetEvent(ctx, deal.EventID)
	if err != nil {
		return nil, err
	}
	if event.Archived {
		return nil, ErrEventArchived
	}

	for _, itemID := range deal.ItemIDs {
		if _, err := l.DB.GetItem(ctx, itemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
			}
			return nil, err
		}
	}

	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now()
	}
	if err := l.DB.InsertDeal(ctx, &deal); err != nil {
		return nil, err
	}
	return &deal, nil
}

func (l *Ledger) Deals(ctx context.Context, eventID string) ([]models.Deal, error) {
	return l.DB.GetDealsByEvent(ctx, eventID)
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"ms-pos/internal/inventory"
	"ms-pos/internal/models"
	"time"

	"github.com/google/uuid"
)

type DBLayer interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetItems(ctx context.Context, ids []string) ([]models.EventItem, error)
	CommitOrder(ctx context.Context, sales []models.Sale) error
	GetSalesByOrder(ctx context.Context, orderID string) ([]models.Sale, error)
	GetEventIDForOrder(ctx context.Context, orderID string) (string, error)
	StockLevels(ctx context.Context, eventID string) ([]models.StockLevel, error)
}

// RedisLock holds short advisory locks on the cart's items while a checkout
// is in flight. The conditional update in CommitOrder remains the
// authoritative oversell guard; the locks only reduce wasted conflicts
// between terminals.
type RedisLock interface {
	LockItems(itemIDs []string, orderID string) (bool, error)
	UnlockItems(itemIDs []string, orderID string) error
}

type KafkaPublisher interface {
	PublishOrderCompleted(receipt models.OrderReceipt) error
}

// StockEmitter pushes fresh stock levels to subscribed terminals.
type StockEmitter interface {
	EmitStockUpdate(eventID string, levels []models.StockLevel)
}

// ReceiptGenerator renders an order token QR for customer pickup.
type ReceiptGenerator interface {
	Generate(receipt models.OrderReceipt) ([]byte, error)
}

// Service turns a cart into one committed order: all lines or none.
type Service struct {
	DB       DBLayer
	Locks    RedisLock
	Kafka    KafkaPublisher
	Emitter  StockEmitter
	Receipts ReceiptGenerator
}

func NewService(db DBLayer, locks RedisLock, kafka KafkaPublisher) *Service {
	return &Service{DB: db, Locks: locks, Kafka: kafka}
}

// Checkout validates and commits a cart against the live selling day.
//
// The order_id is generated before any mutation so a storage failure can be
// reconciled against the ledger later. Every line is re-validated against
// the authoritative stored counters; a client's cached remaining count is
// never trusted.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	lines, err := normalizeCart(req.Lines)
	if err != nil {
		return nil, err
	}

	event, err := s.DB.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", req.EventID, err)
	}
	if event.Archived {
		return nil, ErrArchived
	}
	if !event.DayState().Open {
		return nil, ErrNoOpenDay
	}

	// Step 1: generate the grouping token before any mutation.
	orderID := uuid.NewString()

	// Step 2: advisory item locks while the checkout is in flight.
	itemIDs := make([]string, len(lines))
	for i, line := range lines {
		itemIDs[i] = line.ItemID
	}
	if s.Locks != nil {
		ok, err := s.Locks.LockItems(itemIDs, orderID)
		if err != nil {
			return nil, fmt.Errorf("item lock error: %w", err)
		}
		if !ok {
			return nil, ErrItemsLocked
		}
		defer func() {
			_ = s.Locks.UnlockItems(itemIDs, orderID)
		}()
	}

	// Step 3: re-read authoritative stock and evaluate every line. All
	// shortages are collected so the terminal can fix the cart in one go.
	items, err := s.DB.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	byID := make(map[string]models.EventItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var failures []*inventory.InsufficientStockError
	now := time.Now()
	sales := make([]models.Sale, 0, len(lines))
	total := 0.0
	for _, line := range lines {
		item, found := byID[line.ItemID]
		if !found {
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, line.ItemID)
		}
		if item.EventID != event.ID {
			// Another event's item is not in this catalog; selling it here
			// would bypass its own event's day and archive guards.
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, line.ItemID)
		}
		if !item.Active {
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemInactive, item.Name)
		}
		if line.Quantity > item.Remaining() {
			failures = append(failures, &inventory.InsufficientStockError{
				ItemID:    item.ID,
				Name:      item.Name,
				Requested: line.Quantity,
				Remaining: item.Remaining(),
			})
			continue
		}
		sales = append(sales, models.Sale{
			EventItemID: item.ID,
			OrderID:     orderID,
			Quantity:    line.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  float64(line.Quantity) * item.UnitPrice,
			CreatedAt:   now,
		})
		total += float64(line.Quantity) * item.UnitPrice
	}
	if len(failures) > 0 {
		return nil, &StockConflictError{Failures: failures}
	}

	// Step 4: commit every line atomically. The conditional increments
	// inside the transaction re-apply the guard, so a concurrent checkout
	// that won the race surfaces here as a stock conflict, not an oversell.
	if err := s.DB.CommitOrder(ctx, sales); err != nil {
		var shortage *inventory.InsufficientStockError
		if errors.As(err, &shortage) {
			return nil, &StockConflictError{Failures: []*inventory.InsufficientStockError{shortage}}
		}
		return nil, &TransactionError{Err: err}
	}

	// Step 5: refresh stock for the response and for subscribed terminals.
	levels, err := s.DB.StockLevels(ctx, event.ID)
	if err != nil {
		// The order committed; a failed refresh must not fail the checkout.
		levels = nil
	}
	if s.Emitter != nil && levels != nil {
		s.Emitter.EmitStockUpdate(event.ID, levels)
	}

	receipt := models.OrderReceipt{
		OrderID:   orderID,
		EventID:   event.ID,
		CreatedAt: now,
		Total:     total,
		Items:     countItems(sales),
		Lines:     sales,
	}

	if s.Kafka != nil {
		// Integration events are best-effort; the sale is already on the ledger.
		_ = s.Kafka.PublishOrderCompleted(receipt)
	}

	resp := &models.CheckoutResponse{
		OrderID:   orderID,
		Total:     total,
		Remaining: levels,
	}
	if s.Receipts != nil {
		if qr, err := s.Receipts.Generate(receipt); err == nil {
			resp.QRCode = qr
		}
	}
	return resp, nil
}

// GetOrder reconstructs one logical order (receipt) from its sale rows.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.OrderReceipt, error) {
	sales, err := s.DB.GetSalesByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("order %s not found", orderID)
	}

	eventID, err := s.DB.GetEventIDForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	receipt := &models.OrderReceipt{
		OrderID:   orderID,
		EventID:   eventID,
		CreatedAt: sales[0].CreatedAt,
		Items:     countItems(sales),
		Lines:     sales,
	}
	for _, sale := range sales {
		receipt.Total += sale.TotalPrice
	}
	return receipt, nil
}

// normalizeCart merges duplicate lines and rejects empty or non-positive
// quantities before anything touches storage.
func normalizeCart(lines []models.CartLine) ([]models.CartLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	merged := make([]models.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %s", inventory.ErrInvalidQty, line.ItemID)
		}
		if at, seen := index[line.ItemID]; seen {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[line.ItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func countItems(sales []models.Sale) int {
	count := 0
	for _, sale := range sales {
		count += sale.Quantity
	}
	return count
}

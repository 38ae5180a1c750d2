package inventory_test

import (
	"context"
	"database/sql"
	"ms-pos/internal/inventory"
	"ms-pos/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockDBLayer) GetItem(ctx context.Context, id string) (*models.EventItem, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EventItem), args.Error(1)
}

func (m *MockDBLayer) GetItemsByEvent(ctx context.Context, eventID string, includeRetired bool) ([]models.EventItem, error) {
	args := m.Called(eventID, includeRetired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EventItem), args.Error(1)
}

func (m *MockDBLayer) InsertItem(ctx context.Context, item *models.EventItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockDBLayer) IncrementSold(ctx context.Context, itemID string, qty int) (bool, error) {
	args := m.Called(itemID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) UpdateStartingQuantity(ctx context.Context, itemID string, qty int) (bool, error) {
	args := m.Called(itemID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) SetItemActive(ctx context.Context, itemID string, active bool) error {
	args := m.Called(itemID, active)
	return args.Error(0)
}

func (m *MockDBLayer) CountSalesByItem(ctx context.Context, itemID string) (int, error) {
	args := m.Called(itemID)
	return args.Int(0), args.Error(1)
}

func (m *MockDBLayer) DeleteItem(ctx context.Context, itemID string) error {
	args := m.Called(itemID)
	return args.Error(0)
}

func (m *MockDBLayer) StockLevels(ctx context.Context, eventID string) ([]models.StockLevel, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StockLevel), args.Error(1)
}

func (m *MockDBLayer) InsertDeal(ctx context.Context, deal *models.Deal) error {
	args := m.Called(deal)
	return args.Error(0)
}

func (m *MockDBLayer) GetDealsByEvent(ctx context.Context, eventID string) ([]models.Deal, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Deal), args.Error(1)
}

func activeItem(remaining int) *models.EventItem {
	return &models.EventItem{
		ID:               "item-1",
		EventID:          "event-1",
		Name:             "Sourdough Loaf",
		UnitPrice:        8.0,
		StartingQuantity: remaining,
		QuantitySold:     0,
		Active:           true,
	}
}

func openEvent() *models.Event {
	now := time.Now()
	return &models.Event{
		ID:          "event-1",
		Name:        "Harvest Fair",
		Status:      models.EventStatusActive,
		CurrentDay:  1,
		DayOpenTime: &now,
	}
}

func closedEvent() *models.Event {
	return &models.Event{
		ID:     "event-1",
		Name:   "Harvest Fair",
		Status: models.EventStatusActive,
	}
}

func TestReserve(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)
	ctx := context.Background()

	// Invalid quantity never reaches storage
	err := ledger.Reserve(ctx, "item-1", 0)
	assert.ErrorIs(t, err, inventory.ErrInvalidQty)

	// Unknown item
	mockDB.On("GetItem", "missing").Return(nil, sql.ErrNoRows)
	err = ledger.Reserve(ctx, "missing", 1)
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)

	// Retired item
	retired := activeItem(10)
	retired.Active = false
	mockDB.On("GetItem", "item-retired").Return(retired, nil)
	err = ledger.Reserve(ctx, "item-retired", 1)
	assert.ErrorIs(t, err, inventory.ErrItemInactive)

	// Not enough stock
	mockDB.On("GetItem", "item-1").Return(activeItem(3), nil)
	err = ledger.Reserve(ctx, "item-1", 4)
	require.True(t, inventory.IsInsufficientStock(err))

	// Enough stock
	err = ledger.Reserve(ctx, "item-1", 3)
	assert.NoError(t, err)
}

func TestCommit_Succeeds(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	mockDB.On("IncrementSold", "item-1", 2).Return(true, nil)

	err := ledger.Commit(context.Background(), "item-1", 2)
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestCommit_ClassifiesGuardFailure(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	// Guard matched no row; the re-read shows one unit left
	item := activeItem(5)
	item.QuantitySold = 4
	mockDB.On("IncrementSold", "item-1", 2).Return(false, nil)
	mockDB.On("GetItem", "item-1").Return(item, nil)

	err := ledger.Commit(context.Background(), "item-1", 2)
	require.True(t, inventory.IsInsufficientStock(err))

	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 2, shortage.Requested)
	assert.Equal(t, 1, shortage.Remaining)
}

func TestRestock_RefusedWhileDayOpen(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	mockDB.On("GetItem", "item-1").Return(activeItem(10), nil)
	mockDB.On("GetEvent", "event-1").Return(openEvent(), nil)

	err := ledger.Restock(context.Background(), "item-1", 40)
	assert.ErrorIs(t, err, inventory.ErrDayOpen)
	mockDB.AssertNotCalled(t, "UpdateStartingQuantity", mock.Anything, mock.Anything)
}

func TestRestock_AppliesBetweenDays(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	mockDB.On("GetItem", "item-1").Return(activeItem(10), nil)
	mockDB.On("GetEvent", "event-1").Return(closedEvent(), nil)
	mockDB.On("UpdateStartingQuantity", "item-1", 40).Return(true, nil)

	err := ledger.Restock(context.Background(), "item-1", 40)
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestRestock_RefusedBelowSoldCount(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	sold := activeItem(10)
	sold.QuantitySold = 7
	mockDB.On("GetItem", "item-1").Return(sold, nil)
	mockDB.On("GetEvent", "event-1").Return(closedEvent(), nil)

	err := ledger.Restock(context.Background(), "item-1", 5)
	assert.ErrorIs(t, err, inventory.ErrRestockBelowSold)
	mockDB.AssertNotCalled(t, "UpdateStartingQuantity", mock.Anything, mock.Anything)
}

func TestRestock_GuardCatchesConcurrentSale(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	// The sold count moved between the read and the write; the conditional
	// update matches no row and the restock is refused.
	mockDB.On("GetItem", "item-1").Return(activeItem(10), nil)
	mockDB.On("GetEvent", "event-1").Return(closedEvent(), nil)
	mockDB.On("UpdateStartingQuantity", "item-1", 5).Return(false, nil)

	err := ledger.Restock(context.Background(), "item-1", 5)
	assert.ErrorIs(t, err, inventory.ErrRestockBelowSold)
}

func TestRemoveItem_RefusedWithSalesHistory(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	mockDB.On("CountSalesByItem", "item-1").Return(3, nil)

	err := ledger.RemoveItem(context.Background(), "item-1")
	assert.ErrorIs(t, err, inventory.ErrItemHasSales)
	mockDB.AssertNotCalled(t, "DeleteItem", mock.Anything)
}

func TestRemoveItem_DeletesUnsold(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	mockDB.On("CountSalesByItem", "item-1").Return(0, nil)
	mockDB.On("DeleteItem", "item-1").Return(nil)

	err := ledger.RemoveItem(context.Background(), "item-1")
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestAddItem_RefusedOnArchivedEvent(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	archived := closedEvent()
	archived.Archived = true
	mockDB.On("GetEvent", "event-1").Return(archived, nil)

	_, err := ledger.AddItem(context.Background(), models.EventItem{
		ID: "item-new", EventID: "event-1", Name: "Baguette", UnitPrice: 4, StartingQuantity: 30,
	})
	assert.ErrorIs(t, err, inventory.ErrEventArchived)
}

func TestAddItem_StartsFreshCounters(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)

	mockDB.On("GetEvent", "event-1").Return(closedEvent(), nil)
	mockDB.On("InsertItem", mock.AnythingOfType("*models.EventItem")).Return(nil)

	created, err := ledger.AddItem(context.Background(), models.EventItem{
		ID: "item-new", EventID: "event-1", Name: "Baguette", UnitPrice: 4,
		StartingQuantity: 30, QuantitySold: 99, Active: false,
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, 0, created.QuantitySold, "New items always start with zero sold")
}

func TestAddDeal(t *testing.T) {
	mockDB := new(MockDBLayer)
	ledger := inventory.NewLedger(mockDB)
	ctx := context.Background()

	// No items in the bundle
	_, err := ledger.AddDeal(ctx, models.Deal{ID: "deal-1", EventID: "event-1", Name: "Empty"})
	assert.ErrorIs(t, err, inventory.ErrInvalidQty)

	// Unknown bundle member
	mockDB.On("GetEvent", "event-1").Return(closedEvent(), nil)
	mockDB.On("GetItem", "missing").Return(nil, sql.ErrNoRows)
	_, err = ledger.AddDeal(ctx, models.Deal{
		ID: "deal-1", EventID: "event-1", Name: "Bad Bundle", ItemIDs: []string{"missing"}, BundlePrice: 10,
	})
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)

	// Valid deal
	mockDB.On("GetItem", "item-1").Return(activeItem(10), nil)
	mockDB.On("InsertDeal", mock.AnythingOfType("*models.Deal")).Return(nil)
	created, err := ledger.AddDeal(ctx, models.Deal{
		ID: "deal-2", EventID: "event-1", Name: "Bread Pair", ItemIDs: []string{"item-1"}, BundlePrice: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bread Pair", created.Name)
}

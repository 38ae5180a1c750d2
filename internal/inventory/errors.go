package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrItemInactive     = errors.New("item has been retired from sale")
	ErrItemHasSales     = errors.New("item has recorded sales and can only be retired, not deleted")
	ErrDayOpen          = errors.New("restock requires the selling day to be closed")
	ErrRestockBelowSold = errors.New("starting quantity cannot drop below the quantity already sold")
	ErrInvalidQty       = errors.New("quantity must be positive")
	ErrEventArchived    = errors.New("event is archived")
)

// InsufficientStockError reports one cart line that exceeds the remaining
// stock. Recoverable: the terminal should refresh stock levels and let the
// user adjust the quantity.
type InsufficientStockError struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Remaining int    `json:"remaining"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d left, requested %d", e.Name, e.Remaining, e.Requested)
}

// IsInsufficientStock reports whether err is a stock shortage.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

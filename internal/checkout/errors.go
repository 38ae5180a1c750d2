package checkout

import (
	"errors"
	"fmt"
	"ms-pos/internal/inventory"
	"strings"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrNoOpenDay   = errors.New("no selling day is open for this event")
	ErrArchived    = errors.New("event is archived")
	ErrItemsLocked = errors.New("one or more items are locked by another checkout, retry shortly")
)

// StockConflictError aggregates every cart line that failed its stock check
// so the terminal can show all shortages at once. The whole transaction was
// rejected; nothing was applied.
type StockConflictError struct {
	Failures []*inventory.InsufficientStockError `json:"failures"`
}

func (e *StockConflictError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return "checkout rejected: " + strings.Join(msgs, "; ")
}

// TransactionError marks a storage-level failure during the atomic commit.
// The caller must re-read authoritative state before retrying: the failed
// attempt may or may not have committed, and a blind retry could
// double-sell.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("checkout transaction failed: %v", e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is a storage failure that may be
// retried after a fresh state read. Stock and precondition failures are
// never retryable as-is.
func IsRetryable(err error) bool {
	var target *TransactionError
	return errors.As(err, &target)
}

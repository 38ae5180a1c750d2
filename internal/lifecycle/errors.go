package lifecycle

import "errors"

// Precondition violations. These are rejected immediately and never
// auto-retried: the caller must re-fetch the event and decide again.
var (
	ErrEventNotFound  = errors.New("event not found")
	ErrDayAlreadyOpen = errors.New("a selling day is already open")
	ErrNoOpenDay      = errors.New("no selling day is open")
	ErrEventArchived  = errors.New("event is archived")
	ErrEventCompleted = errors.New("event is already completed")
)

// IsPrecondition reports whether err is a lifecycle precondition violation
// (as opposed to a storage failure).
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrDayAlreadyOpen) ||
		errors.Is(err, ErrNoOpenDay) ||
		errors.Is(err, ErrEventArchived) ||
		errors.Is(err, ErrEventCompleted)
}

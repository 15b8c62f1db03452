package tale

import (
	"errors"
	"fmt"
)

// Sentinel errors for outcomes the presentation layer must tell apart.
// A failed command leaves the store and the navigation state unchanged;
// none of these are fatal.
var (
	// ErrDailyLimit means today's generation allowance is spent. The
	// remedy is waiting for the next day.
	ErrDailyLimit = errors.New("daily story limit reached")

	// ErrMonthlyLimit means this month's allowance is spent. The remedy
	// is upgrading the plan.
	ErrMonthlyLimit = errors.New("monthly story limit reached")

	// ErrNotFound means a referenced child or story no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrTimeout means a long-running command exceeded its budget.
	ErrTimeout = errors.New("operation timed out")

	// ErrDeclined means the payment gateway rejected the charge.
	ErrDeclined = errors.New("payment declined")

	// ErrBusy means a command of the same category is already in flight.
	ErrBusy = errors.New("operation already in progress")

	// ErrCodeMismatch means the submitted verification code is wrong.
	ErrCodeMismatch = errors.New("verification code does not match")

	// ErrRateLimited means code requests are arriving too quickly.
	ErrRateLimited = errors.New("too many code requests")
)

// ValidationError reports malformed command input, e.g. an empty child
// name or a story request without themes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

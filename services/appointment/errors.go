package appointment

import (
	"fmt"

	"clinicore/models"
)

// ValidationError carries the full business-rules outcome for a rejected
// operation. Nothing has been mutated when it is returned.
type ValidationError struct {
	Result models.ValidationResult
}

func (e *ValidationError) Error() string {
	if len(e.Result.Violations) == 0 {
		return "booking rejected by business rules"
	}
	first := e.Result.Violations[0]
	return fmt.Sprintf("%s: %s", first.Code, first.Message)
}

// CancellationError reports a cancellation the fee policy refused.
type CancellationError struct {
	Quote models.CancellationQuote
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancellation not allowed: %s", e.Quote.Reason)
}

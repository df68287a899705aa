package budget

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonPositiveAmount rejects fund and expense amounts of zero or less
// before any mutation is computed.
var ErrNonPositiveAmount = errors.New("amount must be positive")

// UnknownCategoryError is returned when an operation names a category id
// that is not part of the configuration snapshot.
type UnknownCategoryError struct {
	ID string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.ID)
}

// CycleError is returned when following overflow targets revisits a
// category before reaching a terminal one. Chain holds the ids walked up to
// and including the repeated id.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("overflow chain contains a cycle: %s", strings.Join(e.Chain, " -> "))
}

// NoTerminalError is returned when a chain cannot reach a category without
// an overflow target, e.g. because a target references a deleted category.
type NoTerminalError struct {
	From string
}

func (e *NoTerminalError) Error() string {
	return fmt.Sprintf("overflow chain from %q never reaches a terminal category", e.From)
}

// TerminalConflictError is returned when the configuration defines more
// than one terminal category. Rollover sweeps into a single savings
// absorber, so the graph must have exactly one.
type TerminalConflictError struct {
	IDs []string
}

func (e *TerminalConflictError) Error() string {
	return fmt.Sprintf("configuration has %d terminal categories, want exactly one: %s",
		len(e.IDs), strings.Join(e.IDs, ", "))
}

// IsConfigError reports whether err describes a category configuration
// problem rather than a bad input. Configuration errors are deterministic:
// retrying without fixing the category setup reproduces them.
func IsConfigError(err error) bool {
	var cycle *CycleError
	var noTerm *NoTerminalError
	var conflict *TerminalConflictError
	return errors.As(err, &cycle) || errors.As(err, &noTerm) || errors.As(err, &conflict)
}

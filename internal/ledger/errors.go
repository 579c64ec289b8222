package ledger

import "errors"

// Sentinel errors returned by ledger operations. Callers match with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrValidation marks missing or invalid input: empty cart,
	// non-positive amount, no active camp.
	ErrValidation = errors.New("invalid input")

	// ErrInsufficientBalance marks a purchase blocked by the camp's
	// balance policy.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrConflict marks an operation that contradicts ledger state,
	// such as reversing an already-reversed transaction.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an unresolved participant, product or
	// transaction id.
	ErrNotFound = errors.New("not found")
)

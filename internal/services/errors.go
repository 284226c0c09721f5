package services

import (
	"errors"
	"fmt"
)

// Ledger engine error taxonomy. Validation errors are returned to callers
// synchronously; ErrConcurrentModification is retried internally before
// being surfaced; persistence errors are always fatal for the request.
var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidType            = errors.New("invalid transaction type")
	ErrInvalidCursor          = errors.New("invalid cursor")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrNotFound               = errors.New("not found")
	ErrAccountClosed          = errors.New("account closed")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// PersistenceError wraps a storage failure. The ledger never continues
// silently after one: every balance change must be traceable to exactly one
// successful transaction write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package records

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreFailed marks every failure reported by a backing store.
	ErrStoreFailed = errors.New("store operation failed")
	// ErrIllegalTransition is returned when strict lifecycle enforcement rejects
	// a status change.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// StoreError wraps a store failure with the operation that caused it. It matches
// both ErrStoreFailed and the underlying cause.
type StoreError struct {
	Op     string
	Entity string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreFailed, e.Err}
}

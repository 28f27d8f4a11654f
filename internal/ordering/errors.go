package ordering

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNoCustomer   = errors.New("no authenticated customer")
	ErrNoFranchisee = errors.New("no franchisee selected")
)

// PreconditionError is returned before any order is created.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string { return e.Err.Error() }
func (e *PreconditionError) Unwrap() error { return e.Err }

// PartialOrderError reports an order whose header exists but whose lines
// were not all persisted.
type PartialOrderError struct {
	OrderID         string
	Persisted       int
	Expected        int
	Compensated     bool
	CompensationErr error
	Err             error
}

func (e *PartialOrderError) Error() string {
	msg := fmt.Sprintf("order %s saved with %d of %d lines: %v", e.OrderID, e.Persisted, e.Expected, e.Err)
	switch {
	case e.Compensated:
		msg += "; order cancelled"
	case e.CompensationErr != nil:
		msg += fmt.Sprintf("; cancelling order failed: %v", e.CompensationErr)
	}
	return msg
}

func (e *PartialOrderError) Unwrap() error { return e.Err }

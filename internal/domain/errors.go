package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrStore              = errors.New("store error")
	ErrSwapPartialFailure = errors.New("swap partially failed")
)

// ValidationError reports a missing, malformed or unknown input field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StoreError wraps a failure of the underlying record store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }

// ReconciliationMismatch is a durable warning: the legs of a transaction do
// not add up to its amount. It is recorded, never returned as an error.
type ReconciliationMismatch struct {
	TransactionID string          `json:"transaction_id"`
	Expected      decimal.Decimal `json:"expected"`
	Actual        decimal.Decimal `json:"actual"`
}

func (m *ReconciliationMismatch) String() string {
	return fmt.Sprintf("legs of %s sum to %s, expected %s", m.TransactionID, m.Actual.String(), m.Expected.String())
}

// SwapPartialFailure reports a swap that wrote at least one transaction
// before a side failed. BuyTransactionID is set when the Buy was appended
// before its later steps failed.
type SwapPartialFailure struct {
	SwapID            string
	FailedSide        TransactionType
	SellTransactionID string
	BuyTransactionID  string
	Compensated       bool
	Err               error
}

// PostedIDs lists the transactions the swap left in the ledger.
func (e *SwapPartialFailure) PostedIDs() []string {
	var ids []string
	for _, id := range []string{e.SellTransactionID, e.BuyTransactionID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *SwapPartialFailure) Error() string {
	state := "posted transactions remain"
	if e.Compensated {
		state = "posted transactions cancelled"
	}
	side := strings.ToLower(string(e.FailedSide))
	if side == "" {
		side = "buy"
	}
	return fmt.Sprintf("swap %s: %s side failed after posting %s (%s): %v",
		e.SwapID, side, strings.Join(e.PostedIDs(), ", "), state, e.Err)
}

func (e *SwapPartialFailure) Is(target error) bool { return target == ErrSwapPartialFailure }

func (e *SwapPartialFailure) Unwrap() error { return e.Err }

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SettlementType string

const (
	SettlementTypeCash         SettlementType = "Cash"
	SettlementTypeBankTransfer SettlementType = "Bank Transfer"
	SettlementTypeSwapIn       SettlementType = "Swap In"
	SettlementTypeSwapOut      SettlementType = "Swap Out"
)

// IsValid reports whether t is a known settlement type.
func (t SettlementType) IsValid() bool {
	switch t {
	case SettlementTypeCash, SettlementTypeBankTransfer, SettlementTypeSwapIn, SettlementTypeSwapOut:
		return true
	}
	return false
}

// DefaultSettlementType is the settlement used when a transaction arrives without legs.
func DefaultSettlementType(t TransactionType) SettlementType {
	if t == TransactionTypeBuy {
		return SettlementTypeCash
	}
	return SettlementTypeBankTransfer
}

type ValidationFlag string

const (
	ValidationFlagUnset    ValidationFlag = ""
	ValidationFlagOK       ValidationFlag = "✓"
	ValidationFlagMismatch ValidationFlag = "mismatch"
)

type SettlementLeg struct {
	ID             string          `json:"id"`
	TransactionID  string          `json:"transaction_id"`
	Ordinal        int             `json:"ordinal"`
	SettlementType SettlementType  `json:"settlement_type"`
	Currency       string          `json:"currency"`
	Amount         decimal.Decimal `json:"amount"` // signed relative to settlement direction
	BankAccount    string          `json:"bank_account"`
	Status         string          `json:"status"`
	Notes          string          `json:"notes"`
	ValidationFlag ValidationFlag  `json:"validation_flag"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LegID builds the identifier of the ordinal-th leg of a transaction.
func LegID(transactionID string, ordinal int) string {
	return fmt.Sprintf("%s-L%d", transactionID, ordinal)
}

type LegInput struct {
	SettlementType string      `json:"settlement_type"`
	Currency       string      `json:"currency"`
	Amount         NumericText `json:"amount"`
	BankAccount    string      `json:"bank_account"`
	Status         string      `json:"status"`
	Notes          string      `json:"notes"`
}

// LegValidation is the outcome of comparing a transaction's legs with its amount.
type LegValidation struct {
	TransactionID string          `json:"transaction_id"`
	Valid         bool            `json:"valid"`
	Expected      decimal.Decimal `json:"expected"`
	Sum           decimal.Decimal `json:"sum"`
	Difference    decimal.Decimal `json:"difference"`
	LegsChecked   int             `json:"legs_checked"`
}

// Mismatch returns the warning to attach to a receipt, or nil when valid.
func (v LegValidation) Mismatch() *ReconciliationMismatch {
	if v.Valid {
		return nil
	}
	return &ReconciliationMismatch{
		TransactionID: v.TransactionID,
		Expected:      v.Expected,
		Actual:        v.Sum,
	}
}

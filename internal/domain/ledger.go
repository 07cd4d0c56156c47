package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "Buy"
	TransactionTypeSell TransactionType = "Sell"
)

type TransactionStatus string

const (
	TransactionStatusComplete  TransactionStatus = "Complete"
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCancelled TransactionStatus = "Cancelled"
)

// IsValid reports whether s is one of the known transaction statuses.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusComplete, TransactionStatusPending, TransactionStatusCancelled:
		return true
	}
	return false
}

type Transaction struct {
	ID          string            `json:"id"`
	Date        time.Time         `json:"date"`
	Customer    string            `json:"customer"`
	Type        TransactionType   `json:"type"`
	Currency    string            `json:"currency"`
	Amount      decimal.Decimal   `json:"amount"`
	Rate        decimal.Decimal   `json:"rate"`
	ValueInBase decimal.Decimal   `json:"value_in_base"`
	Nature      string            `json:"nature"`
	Source      string            `json:"source"`
	Staff       string            `json:"staff"`
	Status      TransactionStatus `json:"status"`
	Notes       string            `json:"notes"`
	SwapID      string            `json:"swap_id,omitempty"` // set on both sides of a swap
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ValueOf returns amount * rate rounded to two places.
func ValueOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}

// InventoryKey returns the (date, currency) partition this transaction counts toward.
func (t *Transaction) InventoryKey() InventoryKey {
	return InventoryKey{Date: t.Date, Currency: t.Currency}
}

// TransactionInput is the caller-supplied data for a new transaction.
// Amounts and rates arrive as text so that parsing failures surface as
// validation errors rather than decode errors.
type TransactionInput struct {
	Date     string      `json:"date"`
	Customer string      `json:"customer"`
	Type     string      `json:"type"`
	Currency string      `json:"currency"`
	Amount   NumericText `json:"amount"`
	Rate     NumericText `json:"rate"`
	Nature   string      `json:"nature"`
	Source   string      `json:"source"`
	Staff    string      `json:"staff"`
	Notes    string      `json:"notes"`
	Legs     []LegInput  `json:"legs,omitempty"`

	// SwapID is only set by the swap orchestrator.
	SwapID string `json:"-"`
}

// TransactionPatch holds the fields an update may overwrite. Nil means unchanged.
type TransactionPatch struct {
	Date     *string      `json:"date,omitempty"`
	Customer *string      `json:"customer,omitempty"`
	Type     *string      `json:"type,omitempty"`
	Currency *string      `json:"currency,omitempty"`
	Amount   *NumericText `json:"amount,omitempty"`
	Rate     *NumericText `json:"rate,omitempty"`
	Nature   *string      `json:"nature,omitempty"`
	Source   *string      `json:"source,omitempty"`
	Staff    *string      `json:"staff,omitempty"`
	Status   *string      `json:"status,omitempty"`
	Notes    *string      `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Date == nil && p.Customer == nil && p.Type == nil && p.Currency == nil &&
		p.Amount == nil && p.Rate == nil && p.Nature == nil && p.Source == nil &&
		p.Staff == nil && p.Status == nil && p.Notes == nil
}

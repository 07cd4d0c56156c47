package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual form of a business date.
const DateLayout = "2006-01-02"

// InventoryKey identifies one day of one currency.
type InventoryKey struct {
	Date     time.Time
	Currency string
}

func (k InventoryKey) String() string {
	return fmt.Sprintf("%s/%s", k.Date.Format(DateLayout), k.Currency)
}

// DailyInventoryEntry is a materialized view over transactions and adjustments.
type DailyInventoryEntry struct {
	Date             time.Time       `json:"date"`
	Currency         string          `json:"currency"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	BuysTotal        decimal.Decimal `json:"buys_total"`
	SellsTotal       decimal.Decimal `json:"sells_total"`
	AdjustmentsTotal decimal.Decimal `json:"adjustments_total"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Key returns the entry's (date, currency) key.
func (e *DailyInventoryEntry) Key() InventoryKey {
	return InventoryKey{Date: e.Date, Currency: e.Currency}
}

// Net is the day's activity: buys - sells + adjustments.
func (e *DailyInventoryEntry) Net() decimal.Decimal {
	return e.BuysTotal.Sub(e.SellsTotal).Add(e.AdjustmentsTotal)
}

// SameBalances compares the balance fields only.
func (e *DailyInventoryEntry) SameBalances(other *DailyInventoryEntry) bool {
	return e.Date.Equal(other.Date) && e.Currency == other.Currency &&
		e.OpeningBalance.Equal(other.OpeningBalance) &&
		e.BuysTotal.Equal(other.BuysTotal) &&
		e.SellsTotal.Equal(other.SellsTotal) &&
		e.AdjustmentsTotal.Equal(other.AdjustmentsTotal) &&
		e.ClosingBalance.Equal(other.ClosingBalance)
}

type Adjustment struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"` // signed
	Reason    string          `json:"reason"`
	Staff     string          `json:"staff"`
	CreatedAt time.Time       `json:"created_at"`
}

type AdjustmentInput struct {
	Date     string      `json:"date"`
	Currency string      `json:"currency"`
	Amount   NumericText `json:"amount"`
	Reason   string      `json:"reason"`
	Staff    string      `json:"staff"`
}

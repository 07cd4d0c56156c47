package domain

import "github.com/shopspring/decimal"

type SwapState string

const (
	SwapStateInit        SwapState = "Init"
	SwapStateSellPosted  SwapState = "SellPosted"
	SwapStateSellFailed  SwapState = "SellFailed"
	SwapStateBuyPosted   SwapState = "BuyPosted"
	SwapStateBuyFailed   SwapState = "BuyFailed"
	SwapStateCompensated SwapState = "Compensated"
)

// SwapUnit groups the Sell and Buy transactions of one currency exchange.
// It is not persisted; both transactions carry the SwapID instead.
type SwapUnit struct {
	SwapID            string          `json:"swap_id"`
	SellTransactionID string          `json:"sell_transaction_id"`
	BuyTransactionID  string          `json:"buy_transaction_id"`
	FromCurrency      string          `json:"from_currency"`
	FromAmount        decimal.Decimal `json:"from_amount"`
	SellRate          decimal.Decimal `json:"sell_rate"`
	ToCurrency        string          `json:"to_currency"`
	ToAmount          decimal.Decimal `json:"to_amount"`
	BuyRate           decimal.Decimal `json:"buy_rate"`
	State             SwapState       `json:"state"`
}

type SwapInput struct {
	Date         string      `json:"date"`
	Customer     string      `json:"customer"`
	FromCurrency string      `json:"from_currency"`
	FromAmount   NumericText `json:"from_amount"`
	SellRate     NumericText `json:"sell_rate"`
	ToCurrency   string      `json:"to_currency"`
	ToAmount     NumericText `json:"to_amount"`
	BuyRate      NumericText `json:"buy_rate"`
	Source       string      `json:"source"`
	Staff        string      `json:"staff"`
	Notes        string      `json:"notes"`
}

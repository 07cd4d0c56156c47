package service_test

import (
	"context"
	"testing"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"
	"fxdesk-ledger/internal/repository/memory"
	"fxdesk-ledger/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testOptions() service.Options {
	return service.Options{
		TransactionIDPrefix: "TX-",
		AutoUpdateInventory: true,
		CompensateSwaps:     true,
		Currencies:          []string{"USD", "EUR", "NAIRA"},
		TransactionTypes:    []string{"Buy", "Sell"},
		Epsilon:             domain.DefaultEpsilon,
	}
}

func newServices(t *testing.T, tune func(*service.Options)) (*service.Services, *repository.Store) {
	t.Helper()
	opts := testOptions()
	if tune != nil {
		tune(&opts)
	}
	store := newMemoryStore()
	return service.New(store, opts, nil), store
}

func newMemoryStore() *repository.Store {
	return memory.NewStore()
}

func date(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buy(day, currency, amount string) domain.TransactionInput {
	return domain.TransactionInput{
		Date:     day,
		Customer: "Ada",
		Type:     "Buy",
		Currency: currency,
		Amount:   domain.NumericText(amount),
		Rate:     "1",
		Staff:    "kim",
	}
}

func sell(day, currency, amount string) domain.TransactionInput {
	in := buy(day, currency, amount)
	in.Type = "Sell"
	return in
}

func mustCreate(t *testing.T, svc *service.Services, in domain.TransactionInput) *service.TransactionReceipt {
	t.Helper()
	receipt, err := svc.Ledger.CreateTransaction(context.Background(), in)
	require.NoError(t, err)
	return receipt
}

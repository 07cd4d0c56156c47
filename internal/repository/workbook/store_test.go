package workbook

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ctx := context.Background()
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	book, err := Open(path)
	require.NoError(t, err)
	store := NewStore(book)

	tx := &domain.Transaction{
		ID:          "TX-0001",
		Date:        day,
		Customer:    "Ada",
		Type:        domain.TransactionTypeBuy,
		Currency:    "USD",
		Amount:      decimal.RequireFromString("500"),
		Rate:        decimal.RequireFromString("1500.25"),
		ValueInBase: decimal.RequireFromString("750125"),
		Status:      domain.TransactionStatusComplete,
	}
	require.NoError(t, store.Transactions.Create(ctx, tx))
	assert.ErrorIs(t, store.Transactions.Create(ctx, tx), repository.ErrDuplicate)

	leg := &domain.SettlementLeg{ID: domain.LegID(tx.ID, 1), TransactionID: tx.ID, Ordinal: 1,
		SettlementType: domain.SettlementTypeCash, Currency: "USD", Amount: tx.Amount}
	require.NoError(t, store.Legs.Create(ctx, leg))
	require.NoError(t, store.Legs.UpdateValidationFlag(ctx, leg.ID, domain.ValidationFlagOK))

	entry := &domain.DailyInventoryEntry{Date: day, Currency: "USD", BuysTotal: tx.Amount, ClosingBalance: tx.Amount}
	require.NoError(t, store.Inventory.Upsert(ctx, entry))
	entry.ClosingBalance = decimal.NewFromInt(450)
	require.NoError(t, store.Inventory.Upsert(ctx, entry))

	n, err := store.Sequences.Next(ctx, repository.SequenceTransaction)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Sequences.Next(ctx, repository.SequenceTransaction)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, book.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	store = NewStore(reopened)

	got, err := store.Transactions.GetByID(ctx, "TX-0001")
	require.NoError(t, err)
	assert.Equal(t, day, got.Date)
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("1500.25")))
	assert.Equal(t, "", got.Notes)

	legs, err := store.Legs.ListByTransaction(ctx, "TX-0001")
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, domain.ValidationFlagOK, legs[0].ValidationFlag)

	inv, err := store.Inventory.ListByCurrency(ctx, "USD", day, day)
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.True(t, inv[0].ClosingBalance.Equal(decimal.NewFromInt(450)))

	n, err = store.Sequences.Next(ctx, repository.SequenceTransaction)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = store.Inventory.GetLatestBefore(ctx, day, "USD")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransactionRepository_UpdateMissing(t *testing.T) {
	book, err := Open(filepath.Join(t.TempDir(), "ledger.xlsx"))
	require.NoError(t, err)
	defer book.Close()

	err = NewStore(book).Transactions.Update(context.Background(), &domain.Transaction{ID: "TX-404"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

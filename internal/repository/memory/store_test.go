package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestSequenceRepository_NextIsAtomic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	results := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.Sequences.Next(ctx, repository.SequenceTransaction)
			assert.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for v := range results {
		assert.False(t, seen[v], "duplicate sequence value %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestTransactionRepository(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	tx := &domain.Transaction{ID: "TX-0001", Date: day(5), Currency: "USD", Amount: decimal.NewFromInt(10)}
	require.NoError(t, store.Transactions.Create(ctx, tx))
	assert.ErrorIs(t, store.Transactions.Create(ctx, tx), repository.ErrDuplicate)

	got, err := store.Transactions.GetByID(ctx, "TX-0001")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)

	_, err = store.Transactions.GetByID(ctx, "TX-9999")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{ID: "TX-0002", Date: day(2), Currency: "USD"}))
	require.NoError(t, store.Transactions.Create(ctx, &domain.Transaction{ID: "TX-0003", Date: day(5), Currency: "EUR"}))

	dates, err := store.Transactions.ListDates(ctx, "USD", day(1), day(31))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2), day(5)}, dates)

	list, err := store.Transactions.ListByDateAndCurrency(ctx, day(5), "USD")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInventoryRepository_GetLatestBefore(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, d := range []int{3, 7, 10} {
		require.NoError(t, store.Inventory.Upsert(ctx, &domain.DailyInventoryEntry{
			Date: day(d), Currency: "USD", ClosingBalance: decimal.NewFromInt(int64(d)),
		}))
	}

	latest, err := store.Inventory.GetLatestBefore(ctx, day(10), "USD")
	require.NoError(t, err)
	assert.Equal(t, day(7), latest.Date)

	_, err = store.Inventory.GetLatestBefore(ctx, day(3), "USD")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	entries, err := store.Inventory.ListByCurrency(ctx, "USD", day(4), day(31))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, day(7), entries[0].Date)
	assert.Equal(t, day(10), entries[1].Date)
}

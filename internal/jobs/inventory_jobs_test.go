package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/repository/memory"
	"fxdesk-ledger/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, opts service.Options) (*JobRunner, *service.Services) {
	t.Helper()
	svc := service.New(memory.NewStore(), opts, nil)
	cfg := &config.Config{
		Ledger:    config.LedgerConfig{Currencies: opts.Currencies},
		Scheduler: config.SchedulerConfig{LookbackDays: 31},
	}
	jr := NewJobRunner(svc, cfg)
	jr.now = func() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }
	return jr, svc
}

func TestCascadeInventory(t *testing.T) {
	opts := service.Options{
		TransactionIDPrefix: "TX-",
		AutoUpdateInventory: true,
		Currencies:          []string{"USD", "NAIRA"},
		TransactionTypes:    []string{"Buy", "Sell"},
		Epsilon:             domain.DefaultEpsilon,
	}
	jr, svc := newRunner(t, opts)
	ctx := context.Background()

	for _, in := range []domain.TransactionInput{
		{Date: "2024-01-16", Customer: "Ada", Type: "Buy", Currency: "NAIRA", Amount: "1200", Rate: "1", Staff: "alice"},
		{Date: "2024-01-15", Customer: "Ada", Type: "Buy", Currency: "NAIRA", Amount: "1000", Rate: "1", Staff: "alice"},
	} {
		_, err := svc.Ledger.CreateTransaction(ctx, in)
		require.NoError(t, err)
	}

	// The later day was reconciled before the back-dated buy existed.
	stale, err := svc.Inventory.GetInventory(ctx, "NAIRA", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "1200", stale[1].ClosingBalance.String())

	require.NoError(t, jr.CascadeInventory())

	fresh, err := svc.Inventory.GetInventory(ctx, "NAIRA", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "1000", fresh[0].ClosingBalance.String())
	assert.Equal(t, "1000", fresh[1].OpeningBalance.String())
	assert.Equal(t, "2200", fresh[1].ClosingBalance.String())
}

func TestRunWithRecovery(t *testing.T) {
	jr := &JobRunner{}

	t.Run("Error", func(t *testing.T) {
		boom := errors.New("boom")
		err := jr.runWithRecovery("failing", func() error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Panic", func(t *testing.T) {
		err := jr.runWithRecovery("panicking", func() error { panic("bad state") })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad state")
	})
}

package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"fxdesk-ledger/internal/domain"
	"fxdesk-ledger/internal/metrics"
	"fxdesk-ledger/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_Recursion(t *testing.T) {
	svc, _ := newServices(t, func(o *service.Options) { o.AutoUpdateInventory = false })
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-03-01", "EUR", "1000"))
	mustCreate(t, svc, sell("2024-03-02", "EUR", "300"))
	mustCreate(t, svc, buy("2024-03-04", "EUR", "120.50"))
	mustCreate(t, svc, sell("2024-03-04", "EUR", "20"))
	_, err := svc.Inventory.RecordAdjustment(ctx, domain.AdjustmentInput{
		Date: "2024-03-04", Currency: "EUR", Amount: "-0.50", Reason: "rounding",
	})
	require.NoError(t, err)

	var entries []*domain.DailyInventoryEntry
	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-04"} {
		entry, err := svc.Inventory.Reconcile(ctx, date(d), "EUR")
		require.NoError(t, err)
		entries = append(entries, entry)
	}

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		assert.True(t, cur.OpeningBalance.Equal(prev.ClosingBalance))
		assert.True(t, cur.ClosingBalance.Equal(prev.ClosingBalance.Add(cur.Net())))
	}
	assert.True(t, entries[0].OpeningBalance.IsZero())
	assert.True(t, entries[2].ClosingBalance.Equal(dec("800")))
}

func TestReconcile_Idempotent(t *testing.T) {
	svc, _ := newServices(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-01-05", "USD", "500"))
	mustCreate(t, svc, sell("2024-01-05", "USD", "125.25"))

	first, err := svc.Inventory.Reconcile(ctx, date("2024-01-05"), "USD")
	require.NoError(t, err)
	second, err := svc.Inventory.Reconcile(ctx, date("2024-01-05"), "USD")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestReconcile_OnlyCompleteTransactionsCount(t *testing.T) {
	svc, _ := newServices(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-01-05", "USD", "500"))
	mustCreate(t, svc, buy("2024-01-05", "USD", "70"))
	status := "Pending"
	_, err := svc.Ledger.UpdateTransaction(ctx, "TX-0002", domain.TransactionPatch{Status: &status})
	require.NoError(t, err)

	entry, err := svc.Inventory.Reconcile(ctx, date("2024-01-05"), "USD")
	require.NoError(t, err)
	assert.True(t, entry.BuysTotal.Equal(dec("500")))
}

func TestReconcile_ConcurrentSameKey(t *testing.T) {
	svc, _ := newServices(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, buy("2024-01-05", "NAIRA", "1000"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := svc.Inventory.Reconcile(ctx, date("2024-01-05"), "NAIRA")
			if assert.NoError(t, err) {
				assert.True(t, entry.ClosingBalance.Equal(dec("1000")))
			}
		}()
	}
	wg.Wait()
}

func TestRecordAdjustment_LeavesLaterDaysStale(t *testing.T) {
	svc, store := newServices(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-02-01", "NAIRA", "1000"))
	mustCreate(t, svc, buy("2024-02-03", "NAIRA", "200"))

	receipt, err := svc.Inventory.RecordAdjustment(ctx, domain.AdjustmentInput{
		Date: "2024-02-02", Currency: "naira", Amount: "-50", Reason: "count", Staff: "kim",
	})
	require.NoError(t, err)
	assert.Equal(t, "ADJ-0001", receipt.Adjustment.ID)
	require.NotNil(t, receipt.Inventory)
	assert.True(t, receipt.Inventory.OpeningBalance.Equal(dec("1000")))
	assert.True(t, receipt.Inventory.ClosingBalance.Equal(dec("950")))
	assert.Empty(t, receipt.Cascaded)

	stale, err := store.Inventory.Get(ctx, date("2024-02-03"), "NAIRA")
	require.NoError(t, err)
	assert.True(t, stale.ClosingBalance.Equal(dec("1200")))

	entries, err := svc.Inventory.ReconcileForward(ctx, date("2024-02-01"), "NAIRA", time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[2].ClosingBalance.Equal(dec("1150")))
}

func TestRecordAdjustment_ReconcilesWithoutAutoUpdate(t *testing.T) {
	svc, _ := newServices(t, func(o *service.Options) { o.AutoUpdateInventory = false })

	receipt, err := svc.Inventory.RecordAdjustment(context.Background(), domain.AdjustmentInput{
		Date: "2024-02-02", Currency: "USD", Amount: "25",
	})
	require.NoError(t, err)
	assert.True(t, receipt.Inventory.AdjustmentsTotal.Equal(dec("25")))
}

func TestRecordAdjustment_Cascade(t *testing.T) {
	svc, _ := newServices(t, func(o *service.Options) { o.CascadeOnWrite = true })
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-02-01", "NAIRA", "1000"))
	mustCreate(t, svc, buy("2024-02-03", "NAIRA", "200"))

	receipt, err := svc.Inventory.RecordAdjustment(ctx, domain.AdjustmentInput{
		Date: "2024-02-02", Currency: "NAIRA", Amount: "-50",
	})
	require.NoError(t, err)
	require.Len(t, receipt.Cascaded, 1)
	assert.True(t, receipt.Cascaded[0].ClosingBalance.Equal(dec("1150")))
}

func TestRecordAdjustment_Validation(t *testing.T) {
	svc, _ := newServices(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.AdjustmentInput
	}{
		{"Zero amount", domain.AdjustmentInput{Date: "2024-02-02", Currency: "USD", Amount: "0"}},
		{"Text amount", domain.AdjustmentInput{Date: "2024-02-02", Currency: "USD", Amount: "ten"}},
		{"Unknown currency", domain.AdjustmentInput{Date: "2024-02-02", Currency: "JPY", Amount: "1"}},
		{"Bad date", domain.AdjustmentInput{Date: "02/02/2024", Currency: "USD", Amount: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Inventory.RecordAdjustment(ctx, tt.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestReconcileForward_Validation(t *testing.T) {
	svc, _ := newServices(t, nil)

	_, err := svc.Inventory.ReconcileForward(context.Background(), date("2024-02-05"), "USD", date("2024-02-01"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Inventory.Reconcile(context.Background(), date("2024-02-05"), "XYZ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetInventory(t *testing.T) {
	svc, _ := newServices(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-02-01", "USD", "10"))
	mustCreate(t, svc, buy("2024-02-03", "USD", "10"))
	mustCreate(t, svc, buy("2024-02-09", "USD", "10"))

	entries, err := svc.Inventory.GetInventory(ctx, "USD", date("2024-02-02"), date("2024-02-09"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, date("2024-02-03"), entries[0].Date)
	assert.True(t, entries[1].ClosingBalance.Equal(dec("30")))
}

func closingGauge(t *testing.T, currency string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "fxdesk_inventory_closing_balance" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "currency" && label.GetValue() == currency {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("no closing balance gauge for %s", currency)
	return 0
}

func TestReconcile_ClosingGaugeTracksNewestDay(t *testing.T) {
	metrics.Init()
	svc, _ := newServices(t, nil)
	ctx := context.Background()

	mustCreate(t, svc, buy("2024-06-10", "NAIRA", "100"))
	assert.Equal(t, 100.0, closingGauge(t, "NAIRA"))

	// Back-dated day: later entry exists, gauge stays on the newest day.
	mustCreate(t, svc, buy("2024-06-05", "NAIRA", "40"))
	assert.Equal(t, 100.0, closingGauge(t, "NAIRA"))

	_, err := svc.Inventory.ReconcileForward(ctx, date("2024-06-05"), "NAIRA", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 140.0, closingGauge(t, "NAIRA"))
}

package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"fxdesk-ledger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLegs_Epsilon(t *testing.T) {
	tests := []struct {
		name  string
		legs  []domain.NumericText
		valid bool
	}{
		{"Exact", []domain.NumericText{"60", "40"}, true},
		{"Within tolerance", []domain.NumericText{"60", "40.005"}, true},
		{"On the boundary", []domain.NumericText{"60", "39.99"}, true},
		{"Short by two cents", []domain.NumericText{"60", "39.98"}, false},
		{"Over", []domain.NumericText{"60", "45"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newServices(t, nil)
			ctx := context.Background()

			in := buy("2024-01-05", "USD", "100")
			for _, amount := range tt.legs {
				in.Legs = append(in.Legs, domain.LegInput{SettlementType: "Cash", Amount: amount})
			}
			receipt := mustCreate(t, svc, in)

			result, err := svc.Legs.ValidateLegs(ctx, receipt.TransactionID)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, len(tt.legs), result.LegsChecked)
			assert.True(t, result.Difference.Equal(result.Sum.Sub(dec("100"))))

			want := domain.ValidationFlagMismatch
			if tt.valid {
				want = domain.ValidationFlagOK
			}
			legs, err := svc.Legs.ListLegs(ctx, receipt.TransactionID)
			require.NoError(t, err)
			for _, leg := range legs {
				assert.Equal(t, want, leg.ValidationFlag, leg.ID)
			}
		})
	}
}

func TestValidateLegs_IgnoresOtherCurrencies(t *testing.T) {
	svc, _ := newServices(t, nil)
	ctx := context.Background()

	in := buy("2024-01-05", "USD", "100")
	in.Legs = []domain.LegInput{
		{SettlementType: "Cash", Amount: "100"},
		{SettlementType: "Bank Transfer", Currency: "EUR", Amount: "92"},
	}
	receipt := mustCreate(t, svc, in)
	assert.True(t, receipt.Reconciled)

	legs, err := svc.Legs.ListLegs(ctx, receipt.TransactionID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, domain.ValidationFlagOK, legs[0].ValidationFlag)
	assert.Equal(t, domain.ValidationFlagUnset, legs[1].ValidationFlag)
}

func TestAddLeg(t *testing.T) {
	ctx := context.Background()

	t.Run("Appends with next ordinal and empty flag", func(t *testing.T) {
		svc, _ := newServices(t, nil)
		receipt := mustCreate(t, svc, buy("2024-01-05", "USD", "100"))

		leg, err := svc.Legs.AddLeg(ctx, receipt.TransactionID, domain.LegInput{SettlementType: "Cash", Amount: "-5"})
		require.NoError(t, err)
		assert.Equal(t, 2, leg.Ordinal)
		assert.Equal(t, "TX-0001-L2", leg.ID)
		assert.Equal(t, domain.ValidationFlagUnset, leg.ValidationFlag)
		assert.Equal(t, "USD", leg.Currency)
	})

	t.Run("Concurrent ordinals stay dense", func(t *testing.T) {
		svc, _ := newServices(t, nil)
		receipt := mustCreate(t, svc, buy("2024-01-05", "USD", "100"))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Legs.AddLeg(ctx, receipt.TransactionID, domain.LegInput{SettlementType: "Cash", Amount: "1"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		legs, err := svc.Legs.ListLegs(ctx, receipt.TransactionID)
		require.NoError(t, err)
		require.Len(t, legs, 21)
		ordinals := make([]int, len(legs))
		for i, leg := range legs {
			ordinals[i] = leg.Ordinal
		}
		sort.Ints(ordinals)
		for i, o := range ordinals {
			assert.Equal(t, i+1, o)
		}
	})

	t.Run("Unknown transaction", func(t *testing.T) {
		svc, _ := newServices(t, nil)
		_, err := svc.Legs.AddLeg(ctx, "TX-0404", domain.LegInput{SettlementType: "Cash", Amount: "1"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Unknown settlement type", func(t *testing.T) {
		svc, _ := newServices(t, nil)
		receipt := mustCreate(t, svc, buy("2024-01-05", "USD", "100"))
		_, err := svc.Legs.AddLeg(ctx, receipt.TransactionID, domain.LegInput{SettlementType: "Barter", Amount: "1"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

package main

import (
	"bytes"
	"testing"
	"time"

	"fxdesk-ledger/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintInventory(t *testing.T) {
	var buf bytes.Buffer
	err := printInventory(&buf, []domain.DailyInventoryEntry{{
		Date:             time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Currency:         "USD",
		OpeningBalance:   decimal.NewFromInt(100),
		BuysTotal:        decimal.NewFromInt(1000),
		SellsTotal:       decimal.NewFromInt(300),
		AdjustmentsTotal: decimal.NewFromInt(-50),
		ClosingBalance:   decimal.NewFromInt(750),
	}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "2024-01-15")
	assert.Contains(t, out, "750.00")
	assert.Contains(t, out, "-50.00")
}

func TestOptionalDate(t *testing.T) {
	d, err := optionalDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = optionalDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = optionalDate("29/02/2024")
	assert.Error(t, err)
}

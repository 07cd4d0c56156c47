package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceChange(t *testing.T) {
	var buf bytes.Buffer
	InitializeWithWriter(&buf, "info", "json")
	t.Cleanup(func() { Initialize("info", "text") })

	log := WithInventoryKey("2024-01-05", "USD")
	BalanceChange(log, "0", "950", false)
	assert.Empty(t, buf.String(), "unchanged entries log at debug")

	BalanceChange(log, "100", "950", true)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Inventory entry updated", line["msg"])
	assert.Equal(t, "2024-01-05", line["inventory_date"])
	assert.Equal(t, "USD", line["currency"])
	assert.Equal(t, "950", line["closing"])
}

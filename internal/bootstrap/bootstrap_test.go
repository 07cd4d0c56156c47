package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"fxdesk-ledger/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		b, err := OpenStore(ctx, &config.Config{Storage: config.StorageConfig{Type: "memory"}})
		require.NoError(t, err)
		assert.NoError(t, b.Ping(ctx))
		assert.NoError(t, b.Close())
	})

	t.Run("Workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledger.xlsx")
		b, err := OpenStore(ctx, &config.Config{Storage: config.StorageConfig{Type: "workbook", WorkbookPath: path}})
		require.NoError(t, err)
		assert.NotNil(t, b.Store.Transactions)
		assert.NoError(t, b.Close())
		assert.FileExists(t, path)
	})

	t.Run("Unsupported", func(t *testing.T) {
		_, err := OpenStore(ctx, &config.Config{Storage: config.StorageConfig{Type: "s3"}})
		assert.Error(t, err)
	})
}

func TestNewServices(t *testing.T) {
	b, err := OpenStore(context.Background(), &config.Config{Storage: config.StorageConfig{Type: "memory"}})
	require.NoError(t, err)

	cfg := &config.Config{Ledger: config.LedgerConfig{Currencies: []string{"USD"}, TransactionIDPrefix: "TX-"}}
	svc := NewServices(cfg, b.Store)
	assert.NotNil(t, svc.Ledger)
	assert.NotNil(t, svc.Swaps)
}

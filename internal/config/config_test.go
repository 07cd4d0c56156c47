package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
server:
  host: 127.0.0.1
  port: 8080
storage:
  type: memory
jwt:
  secret: 0123456789abcdef0123456789abcdef
ledger:
  currencies: [usd, EUR, NAIRA]
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "TX-", cfg.Ledger.TransactionIDPrefix)
	assert.True(t, cfg.Ledger.AutoUpdate())
	assert.True(t, cfg.Ledger.Compensate())
	assert.False(t, cfg.Ledger.CascadeOnWrite)
	assert.Equal(t, []string{"USD", "EUR", "NAIRA"}, cfg.Ledger.Currencies)
	assert.Equal(t, []string{"Buy", "Sell"}, cfg.Ledger.TransactionTypes)
	assert.Equal(t, "0.01", cfg.Ledger.EpsilonValue().String())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "0 15 0 * * *", cfg.Scheduler.CascadeInventory)
	assert.Equal(t, "127.0.0.1:8080", cfg.GetServerAddress())
	assert.Equal(t, "", cfg.GetGRPCAddress())
}

func TestParse_BoolLikeFlags(t *testing.T) {
	data := baseYAML + `
  auto_update_inventory: "no"
  compensate_swaps: off
`
	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.False(t, cfg.Ledger.AutoUpdate())
	assert.False(t, cfg.Ledger.Compensate())
}

func TestParse_Invalid(t *testing.T) {
	t.Run("Missing currencies", func(t *testing.T) {
		_, err := Parse([]byte(`
server: {port: 8080}
storage: {type: memory}
jwt: {secret: 0123456789abcdef0123456789abcdef}
`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least one currency")
	})

	t.Run("Duplicate currency", func(t *testing.T) {
		_, err := Parse([]byte(`
server: {port: 8080}
storage: {type: memory}
jwt: {secret: 0123456789abcdef0123456789abcdef}
ledger: {currencies: [USD, usd]}
`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate currency")
	})

	t.Run("Short secret", func(t *testing.T) {
		_, err := Parse([]byte(`
server: {port: 8080}
storage: {type: memory}
jwt: {secret: short}
ledger: {currencies: [USD]}
`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("Workbook without path", func(t *testing.T) {
		_, err := Parse([]byte(`
server: {port: 8080}
storage: {type: workbook}
jwt: {secret: 0123456789abcdef0123456789abcdef}
ledger: {currencies: [USD]}
`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "workbook path is required")
	})

	t.Run("Bad boolean", func(t *testing.T) {
		_, err := Parse([]byte(baseYAML + "\n  auto_update_inventory: maybe\n"))
		assert.Error(t, err)
	})
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(baseYAML), 0o600))

	t.Setenv("TRANSACTION_ID_PREFIX", "FX-")
	t.Setenv("AUTO_UPDATE_INVENTORY", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "FX-", cfg.Ledger.TransactionIDPrefix)
	assert.False(t, cfg.Ledger.AutoUpdate())
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("healthz"))
	assert.Equal(t, SecurityStaff, GetSecurityLevel("createTransaction"))
	assert.Equal(t, SecuritySupervisor, GetSecurityLevel("recordAdjustment"))
	assert.Equal(t, SecuritySupervisor, GetSecurityLevel("unknownRoute"))
}

func TestLoad_DevConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.dev.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "127.0.0.1:9090", cfg.GetGRPCAddress())
	assert.Contains(t, cfg.Ledger.Currencies, "NAIRA")
	assert.Equal(t, 720, cfg.JWT.AccessTokenExpiry)
}

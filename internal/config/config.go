package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// StorageConfig selects the record store backend
type StorageConfig struct {
	Type         string `yaml:"type"`          // "postgres", "workbook" or "memory"
	WorkbookPath string `yaml:"workbook_path"` // For workbook storage
}

// JWTConfig contains staff token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LedgerConfig is what the ledger core reads: ID prefix, known currencies
// and transaction types, and the inventory refresh policy.
type LedgerConfig struct {
	TransactionIDPrefix string    `yaml:"transaction_id_prefix"`
	AutoUpdateInventory *BoolLike `yaml:"auto_update_inventory"`
	CascadeOnWrite      bool      `yaml:"cascade_on_write"`
	CompensateSwaps     *BoolLike `yaml:"compensate_swaps"`
	Currencies          []string  `yaml:"currencies"`
	TransactionTypes    []string  `yaml:"transaction_types"`
	Epsilon             string    `yaml:"epsilon"`
}

// AlertsConfig contains SendGrid settings for desk alerts
type AlertsConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	SupervisorTo   string `yaml:"supervisor_email"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	CascadeInventory string `yaml:"cascade_inventory"`
	LookbackDays     int    `yaml:"lookback_days"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies environment overrides and validates it
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("WORKBOOK_PATH"); val != "" {
		c.Storage.WorkbookPath = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Ledger
	if val := os.Getenv("TRANSACTION_ID_PREFIX"); val != "" {
		c.Ledger.TransactionIDPrefix = val
	}
	if val := os.Getenv("AUTO_UPDATE_INVENTORY"); val != "" {
		if b, ok := ParseBoolLike(val); ok {
			v := BoolLike(b)
			c.Ledger.AutoUpdateInventory = &v
		}
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alerts.SendGridAPIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	// Storage validation
	if c.Storage.Type == "" {
		c.Storage.Type = "postgres"
	}
	switch c.Storage.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "workbook":
		if c.Storage.WorkbookPath == "" {
			return fmt.Errorf("workbook path is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 12 * 60
	}

	if err := c.Ledger.applyDefaults(); err != nil {
		return err
	}

	// Scheduler defaults
	if c.Scheduler.CascadeInventory == "" {
		c.Scheduler.CascadeInventory = "0 15 0 * * *" // 00:15 UTC
	}
	if c.Scheduler.LookbackDays == 0 {
		c.Scheduler.LookbackDays = 31
	}

	return nil
}

func (l *LedgerConfig) applyDefaults() error {
	if l.TransactionIDPrefix == "" {
		l.TransactionIDPrefix = "TX-"
	}
	if l.AutoUpdateInventory == nil {
		enabled := BoolLike(true)
		l.AutoUpdateInventory = &enabled
	}
	if l.CompensateSwaps == nil {
		enabled := BoolLike(true)
		l.CompensateSwaps = &enabled
	}
	if len(l.TransactionTypes) == 0 {
		l.TransactionTypes = []string{"Buy", "Sell"}
	}
	if len(l.Currencies) == 0 {
		return fmt.Errorf("at least one currency is required")
	}
	seen := make(map[string]bool, len(l.Currencies))
	for i, cur := range l.Currencies {
		cur = strings.ToUpper(strings.TrimSpace(cur))
		if cur == "" {
			return fmt.Errorf("currency %d is empty", i)
		}
		if seen[cur] {
			return fmt.Errorf("duplicate currency: %s", cur)
		}
		seen[cur] = true
		l.Currencies[i] = cur
	}
	if l.Epsilon == "" {
		l.Epsilon = "0.01"
	}
	eps, err := decimal.NewFromString(l.Epsilon)
	if err != nil || eps.IsNegative() {
		return fmt.Errorf("invalid ledger epsilon: %q", l.Epsilon)
	}
	return nil
}

// AutoUpdate reports whether inventory is refreshed after every transaction.
func (l LedgerConfig) AutoUpdate() bool {
	return l.AutoUpdateInventory == nil || bool(*l.AutoUpdateInventory)
}

// Compensate reports whether a half-posted swap cancels its Sell side.
func (l LedgerConfig) Compensate() bool {
	return l.CompensateSwaps == nil || bool(*l.CompensateSwaps)
}

// EpsilonValue returns the configured tolerance, 0.01 when unset or invalid.
func (l LedgerConfig) EpsilonValue() decimal.Decimal {
	eps, err := decimal.NewFromString(l.Epsilon)
	if err != nil {
		return decimal.RequireFromString("0.01")
	}
	return eps
}

// BoolLike is a flag that may be written true/false, yes/no, on/off or 1/0.
type BoolLike bool

func (b *BoolLike) UnmarshalYAML(value *yaml.Node) error {
	v, ok := ParseBoolLike(value.Value)
	if !ok {
		return fmt.Errorf("line %d: %q is not a boolean", value.Line, value.Value)
	}
	*b = BoolLike(v)
	return nil
}

// ParseBoolLike accepts the spreadsheet-style spellings of a boolean.
func ParseBoolLike(val string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "yes", "y", "on":
		return true, true
	case "no", "n", "off":
		return false, true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return false, false
	}
	return b, true
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address, empty when disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

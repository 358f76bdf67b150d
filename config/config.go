package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"lbclottery/database"
	"lbclottery/domain/entities"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken     string `env:"DISCORD_TOKEN"`
	GuildID          string `env:"GUILD_ID"`           // Primary Discord guild ID, commands register globally when empty
	LotteryChannelID string `env:"LOTTERY_CHANNEL_ID"` // Channel for round end announcements

	// Database configuration
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseName string `env:"DATABASE_NAME"`

	// NATS configuration
	NATSServers string `env:"NATS_SERVERS"` // Comma-separated; empty keeps events in-process

	// Ledger defaults, applied when a guild's ledger is first created
	AdministratorID int64  `env:"ADMIN_DISCORD_ID"`
	LedgerAccountID int64  `env:"LEDGER_ACCOUNT_ID"` // Custody account
	TokenAddress    string `env:"TOKEN_ADDRESS"`
	TicketPrice     int64  `env:"TICKET_PRICE" envDefault:"50000"`
	MaxBuyLimit     int64  `env:"MAX_BUY_LIMIT" envDefault:"100"`

	// Status API
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// OpenTelemetry
	OTelEnabled              bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelServiceName          string `env:"OTEL_SERVICE_NAME" envDefault:"lbclottery"`
	OTelExporterType         string `env:"OTEL_EXPORTER_TYPE" envDefault:"console"` // "console", "otlp" or "none"
	OTelOTLPEndpoint         string `env:"OTEL_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelExportIntervalMillis int    `env:"OTEL_EXPORT_INTERVAL_MILLIS" envDefault:"10000"`

	// Environment
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// LedgerTokenAddress returns the configured token address in canonical form
func (c *Config) LedgerTokenAddress() entities.TokenAddress {
	return entities.TokenAddress(c.TokenAddress).Normalize()
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings the bot cannot start without
func (c *Config) Validate() error {
	if c.Environment == "test" {
		return nil
	}

	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
	}
	if c.AdministratorID == 0 {
		return fmt.Errorf("ADMIN_DISCORD_ID is required")
	}
	if c.LedgerAccountID == 0 {
		return fmt.Errorf("LEDGER_ACCOUNT_ID is required")
	}
	if !c.LedgerTokenAddress().IsValid() {
		return fmt.Errorf("TOKEN_ADDRESS must be a non-zero 0x-prefixed 20-byte hex address, got %q", c.TokenAddress)
	}
	if c.TicketPrice <= 0 {
		return fmt.Errorf("TICKET_PRICE must be positive, got %d", c.TicketPrice)
	}
	if c.MaxBuyLimit <= 0 {
		return fmt.Errorf("MAX_BUY_LIMIT must be positive, got %d", c.MaxBuyLimit)
	}

	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		DiscordToken:             "test-token",
		NATSServers:              "",
		AdministratorID:          111111,
		LedgerAccountID:          999999,
		TokenAddress:             "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		TicketPrice:              entities.DefaultTicketPrice,
		MaxBuyLimit:              entities.DefaultMaxBuyLimit,
		HTTPAddr:                 ":0",
		LogLevel:                 "debug",
		OTelServiceName:          "lbclottery-test",
		OTelExporterType:         "none",
		OTelExportIntervalMillis: 10000,
		Environment:              "test",
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is shared by the bot and the session API server; each binary checks
// the fields it needs with its own Validate method.
type Config struct {
	// Telegram front-end
	BotToken string `env:"BOT_TOKEN"`

	// Session API (client side)
	SessionAPIURL string `env:"SESSION_API_URL" envDefault:"http://localhost:8081"`
	SessionToken  string `env:"SESSION_TOKEN"`
	AnonKey       string `env:"SESSION_ANON_KEY" envDefault:"anon-public-key"`

	// Chat stores idle longer than this are closed
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`

	// Session API (server side)
	DatabaseURL   string   `env:"DATABASE_URL"`
	ListenAddr    string   `env:"SESSION_API_ADDR" envDefault:":8081"`
	SessionTokens []string `env:"SESSION_TOKENS" envSeparator:","`
	DebugSeed     bool     `env:"DEBUG_SEED" envDefault:"false"`

	// Thread store pool
	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBStatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"5s"`

	// Gateway enrichment. Enabled only when both are set.
	GatewayURL     string        `env:"GATEWAY_URL"`
	GatewayAPIKey  string        `env:"GATEWAY_API_KEY"`
	GatewayToken   string        `env:"GATEWAY_TOKEN"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"8s"`

	// Simulation window
	SimulationMinDelay time.Duration `env:"SIMULATION_MIN_DELAY" envDefault:"3s"`
	SimulationMaxDelay time.Duration `env:"SIMULATION_MAX_DELAY" envDefault:"6s"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Metrics server
	Port int `env:"PORT" envDefault:"3000"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`

	// Telegram logging
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`
	LogTopicGateway   int   `env:"LOG_TOPIC_GATEWAY"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.SimulationMaxDelay < cfg.SimulationMinDelay {
		return nil, fmt.Errorf("parse config: SIMULATION_MAX_DELAY %s is below SIMULATION_MIN_DELAY %s",
			cfg.SimulationMaxDelay, cfg.SimulationMinDelay)
	}
	return cfg, nil
}

// ValidateBot checks the fields the Telegram front-end cannot run without.
func (c *Config) ValidateBot() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.SessionAPIURL == "" {
		return errors.New("SESSION_API_URL is required")
	}
	return nil
}

// ValidateServer checks the fields the session API server cannot run without.
func (c *Config) ValidateServer() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.AnonKey == "" && len(c.SessionTokens) == 0 {
		return errors.New("SESSION_ANON_KEY or SESSION_TOKENS is required")
	}
	return nil
}

func (c *Config) GatewayEnabled() bool {
	return c.GatewayURL != "" && c.GatewayAPIKey != ""
}

func (c *Config) IsAdmin(telegramID int64) bool {
	return slices.Contains(c.AdminIDs, telegramID)
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.AdminIDs))
	for i, id := range c.AdminIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// Package config loads process configuration from the environment with an
// optional YAML overlay for engine defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"pobrify/internal/plan"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string
	RateLimit   int

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// AMQP; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Telegram
	TelegramBotToken string
	TelegramChatID   int64

	// Worker schedule
	DailyPlanCron  string
	WeeklySyncCron string
	Timezone       string

	// Item lookup
	ItemCacheSize int
	ItemCacheTTL  time.Duration

	// Engine defaults, overridable by CONFIG_FILE.
	ConfigFile string
	Rates      plan.Rates
	Allocation plan.Settings
}

// Overlay is the YAML file layout. Missing keys keep their defaults.
type Overlay struct {
	Rates      *plan.Rates    `yaml:"rates"`
	Allocation *plan.Settings `yaml:"allocation"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8081"),
		CORSOrigins: getEnvList("CORS_ORIGIN", []string{"http://localhost:5173"}),
		RateLimit:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/pobrify.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pobrify"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "pobrify_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Weeks"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),

		DailyPlanCron:  getEnv("DAILY_PLAN_CRON", "0 0 9 * * 2-7"),
		WeeklySyncCron: getEnv("WEEKLY_SYNC_CRON", "0 0 6 * * 1"),
		Timezone:       getEnv("TZ_NAME", "Local"),

		ItemCacheSize: getEnvInt("ITEM_CACHE_SIZE", 256),
		ItemCacheTTL:  getEnvDuration("ITEM_CACHE_TTL", 15*time.Minute),

		ConfigFile: getEnv("CONFIG_FILE", ""),
		Rates:      plan.DefaultRates(),
		Allocation: plan.DefaultSettings(),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyOverlayFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyOverlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.ApplyOverlay(data)
}

// ApplyOverlay merges a YAML overlay into the engine defaults.
func (c *Config) ApplyOverlay(data []byte) error {
	ov := Overlay{Rates: &c.Rates, Allocation: &c.Allocation}
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Location resolves Timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SheetsEnabled reports whether weekly export is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// TelegramEnabled reports whether plan digests go to Telegram.
func (c *Config) TelegramEnabled() bool { return c.TelegramBotToken != "" && c.TelegramChatID != 0 }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE is required when GOOGLE_SPREADSHEET_ID is set")
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		errors = append(errors, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for _, job := range []struct{ name, spec string }{
		{"DAILY_PLAN_CRON", c.DailyPlanCron},
		{"WEEKLY_SYNC_CRON", c.WeeklySyncCron},
	} {
		if job.spec == "" {
			continue
		}
		if _, err := parser.Parse(job.spec); err != nil {
			errors = append(errors, fmt.Sprintf("invalid %s '%s': %v", job.name, job.spec, err))
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s'", c.Timezone))
	}

	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}
	if c.ItemCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid item cache size %d: must be at least 1", c.ItemCacheSize))
	}
	if c.ItemCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid item cache TTL %v: must be at least 1 second", c.ItemCacheTTL))
	}

	if c.Rates.Day <= 0 || c.Rates.Night <= 0 {
		errors = append(errors, "package rates must be positive")
	}
	if n := c.Allocation.Normalize(); n != c.Allocation {
		errors = append(errors, "allocation defaults out of range: night weights and day share must be 0..100, weekend multiplier positive, minimums non-negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Mirror dispatch modes
const (
	MirrorModeDirect = "direct"
	MirrorModeQueue  = "queue"
)

// Data backends
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP server
	Port string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// Mirror dispatch
	MirrorMode    string
	MirrorTimeout time.Duration

	// AMQP (queue mirror mode)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror sink
	GoogleSpreadsheetID   string
	GoogleAccountsSheet   string
	GoogleTransactionsSheet string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Dashboard cache
	CacheTTL time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rasid.db"),

		MirrorMode:    getEnv("MIRROR_MODE", MirrorModeDirect),
		MirrorTimeout: getEnvDuration("MIRROR_TIMEOUT", 30*time.Second),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rasid"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "mirror_snapshots"),

		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAccountsSheet:     getEnv("GOOGLE_ACCOUNTS_SHEET", "Accounts"),
		GoogleTransactionsSheet: getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleCredentialsFile:   getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredentialsJSON:   getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	validModes := []string{MirrorModeDirect, MirrorModeQueue}
	if !contains(validModes, c.MirrorMode) {
		errors = append(errors, fmt.Sprintf("invalid mirror mode '%s': must be one of %v", c.MirrorMode, validModes))
	}

	if c.MirrorMode == MirrorModeQueue && c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required when mirror mode is 'queue'")
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

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or GOOGLE_CREDENTIALS_JSON must be provided for the Sheets mirror")
		}
		if c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
		if c.GoogleAccountsSheet == "" {
			errors = append(errors, "Google accounts sheet name cannot be empty when a spreadsheet is configured")
		}
		if c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google transactions sheet name cannot be empty when a spreadsheet is configured")
		}
	}

	if c.MirrorTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror timeout %v: must be at least 1 second", c.MirrorTimeout))
	} else if c.MirrorTimeout > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror timeout %v: must be at most 1 hour", c.MirrorTimeout))
	}

	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SheetsConfigured reports whether the Google Sheets mirror sink should
// be wired in.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != ""
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
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

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MaxSampleDays bounds the generate day count.
const MaxSampleDays = 365

var validBackends = []string{"xlsx", "sheets", "sqlite", "memory"}

type Config struct {
	// Project layout
	BaseDir string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID       string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleApplicationCredFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sample generation defaults
	SampleDays      int
	SampleMinPerDay int
	SampleMaxPerDay int

	LogLevel      string
	RenderTimeout time.Duration
}

func Load() *Config {
	base := getEnv("SALESHEET_BASE_DIR", ".")
	cfg := &Config{
		BaseDir:     base,
		DataBackend: getEnv("DATA_BACKEND", "xlsx"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(base, "sample_data", "sales.db")),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "salesheet"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "analysis_requests"),

		SampleDays:      getEnvInt("SAMPLE_DAYS", 30),
		SampleMinPerDay: getEnvInt("SAMPLE_MIN_PER_DAY", 20),
		SampleMaxPerDay: getEnvInt("SAMPLE_MAX_PER_DAY", 50),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RenderTimeout: getEnvDuration("RENDER_TIMEOUT", 30*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.BaseDir) == "" {
		errors = append(errors, "base directory cannot be empty")
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredFile == "" {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if f := c.GoogleServiceAccountFile; f != "" {
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", f))
			}
		}
	}

	// Validate AMQP URL if provided
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

	if c.SampleDays < 1 || c.SampleDays > MaxSampleDays {
		errors = append(errors, fmt.Sprintf("invalid sample days %d: must be between 1 and %d", c.SampleDays, MaxSampleDays))
	}
	if c.SampleMinPerDay < 1 {
		errors = append(errors, fmt.Sprintf("invalid sample min per day %d: must be at least 1", c.SampleMinPerDay))
	}
	if c.SampleMaxPerDay < c.SampleMinPerDay {
		errors = append(errors, fmt.Sprintf("invalid sample max per day %d: must be at least min per day %d", c.SampleMaxPerDay, c.SampleMinPerDay))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if c.RenderTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid render timeout %v: must be at least 1 second", c.RenderTimeout))
	} else if c.RenderTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid render timeout %v: must be at most 10 minutes", c.RenderTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return l, nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

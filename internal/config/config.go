package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	AMUAPI  AMUAPIConfig
	Polling PollingConfig
	MongoDB MongoDBConfig
	Sheets  SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// AMUAPIConfig locates the remote AMU monitoring REST API.
type AMUAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PollingConfig holds scheduler-related settings: the treatment inbox
// refresh cadence and the weekly report export schedule.
type PollingConfig struct {
	RefreshInterval time.Duration
	ReportCron      string
	Timezone        string
}

// MongoDBConfig holds settings for the decision audit trail. An empty URI
// disables auditing.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig configures the regulator report export. Empty credentials
// disable the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	apiTimeout, err := getenvSeconds("AMU_API_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := getenvSeconds("TREATMENT_REFRESH_SECONDS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		AMUAPI: AMUAPIConfig{
			BaseURL: getenvWithDefault("AMU_API_BASE_URL", "http://127.0.0.1:8000/api"),
			Timeout: apiTimeout,
		},
		Polling: PollingConfig{
			RefreshInterval: refreshInterval,
			ReportCron:      getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:        getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "amuvet"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_REPORT_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.AMUAPI.BaseURL == "" {
		return errors.New("AMU_API_BASE_URL must be provided")
	}
	if c.AMUAPI.Timeout <= 0 {
		return errors.New("AMU_API_TIMEOUT_SECONDS must be positive")
	}

	if c.Polling.RefreshInterval <= 0 {
		return errors.New("TREATMENT_REFRESH_SECONDS must be positive")
	}
	if c.Polling.ReportCron == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Polling.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	// Sheets export is optional, but half a configuration is a mistake.
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_REPORT_ID must be set together")
	}

	return nil
}

// AuditEnabled reports whether the MongoDB decision trail is configured.
func (c *Config) AuditEnabled() bool {
	return c.MongoDB.URI != ""
}

// SheetsEnabled reports whether the spreadsheet export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvSeconds(key string, fallback int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Second, nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer number of seconds: %w", key, err)
	}
	return time.Duration(seconds) * time.Second, nil
}

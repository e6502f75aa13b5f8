// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// SettingsReader is the part of the settings repository that can override
// environment values. Satisfied by settings.Repository.
type SettingsReader interface {
	Get(key string) (*string, error)
}

// Config holds application configuration
type Config struct {
	DataDir  string `validate:"required"` // Base directory for the SQLite cache and backups (always absolute)
	Port     int    `validate:"min=1,max=65535"`
	LogLevel string `validate:"oneof=debug info warn warning error"`
	DevMode  bool
	APIKey   string // X-API-Key expected on /api routes; empty rejects every request

	Upstream  UpstreamConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Backup    BackupConfig
}

// UpstreamConfig configures the bank API client and its retry policy.
type UpstreamConfig struct {
	BaseURL          string        `validate:"required,url"`
	Timeout          time.Duration `validate:"gt=0"`
	RetryMaxAttempts int           `validate:"min=1,max=10"`
	RetryBackoffBase time.Duration `validate:"gte=0"`
	RetryStatusCodes []int         `validate:"dive,min=100,max=599"`
}

// DatabaseConfig selects the cache database.
type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite sqlite3 pgx"`
	DSN    string `validate:"required"`
}

// SchedulerConfig drives the periodic refresh jobs.
type SchedulerConfig struct {
	Enabled             bool
	UserID              string
	AccountID           string
	TransactionState    string            `validate:"omitempty,oneof=BOOKED NOTBOOKED BOTH"` // Empty sends no filter
	BalancesSchedule    string            `validate:"required"`
	TransactionSchedule string            `validate:"required"`
	BackupSchedule      string            `validate:"required"`
	MaintenanceSchedule string            `validate:"required"`
	SyncLogRetention    time.Duration     `validate:"gte=0"` // 0 keeps every entry
	Headers             map[string]string // Forwarded upstream headers for background refreshes
}

// BackupConfig configures S3-compatible cache backups. Empty Bucket disables them.
type BackupConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // Custom endpoint for R2 or MinIO
	AccessKeyID     string
	SecretAccessKey string
	RetentionCount  int `validate:"min=0"`
}

// Enabled reports whether a backup bucket is configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("BANK_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	statusCodes, err := getEnvAsIntList("RETRY_STATUS_CODES", []int{429, 500, 502, 503, 504})
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("BANK_PORT", 8000),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		APIKey:   getEnv("BANK_API_KEY", ""),
		Upstream: UpstreamConfig{
			BaseURL:          getEnv("COMDIRECT_BASE_URL", "https://api.comdirect.de/api/"),
			Timeout:          getEnvAsDuration("COMDIRECT_TIMEOUT", 30*time.Second),
			RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryBackoffBase: getEnvAsDuration("RETRY_BACKOFF_BASE", 500*time.Millisecond),
			RetryStatusCodes: statusCodes,
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", filepath.Join(absDataDir, "bank_data.db")),
		},
		Scheduler: SchedulerConfig{
			Enabled:             getEnvAsBool("SCHEDULER_ENABLED", true),
			UserID:              getEnv("SCHEDULER_USER_ID", ""),
			AccountID:           getEnv("SCHEDULER_ACCOUNT_ID", ""),
			TransactionState:    strings.ToUpper(getEnv("SCHEDULER_TRANSACTION_STATE", "")),
			BalancesSchedule:    getEnv("SCHEDULER_BALANCES_CRON", "@every 15m"),
			TransactionSchedule: getEnv("SCHEDULER_TRANSACTIONS_CRON", "@every 30m"),
			BackupSchedule:      getEnv("SCHEDULER_BACKUP_CRON", "0 3 * * *"),
			MaintenanceSchedule: getEnv("SCHEDULER_MAINTENANCE_CRON", "30 4 * * 0"),
			SyncLogRetention:    time.Duration(getEnvAsInt("SYNC_LOG_RETENTION_DAYS", 90)) * 24 * time.Hour,
			Headers:             loadForwardedHeaders(),
		},
		Backup: BackupConfig{
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			Prefix:          getEnv("BACKUP_S3_PREFIX", "bankmirror"),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			RetentionCount:  getEnvAsInt("BACKUP_RETENTION_COUNT", 7),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadForwardedHeaders reads the headers background jobs send upstream.
func loadForwardedHeaders() map[string]string {
	headers := make(map[string]string)
	for env, header := range map[string]string{
		"SCHEDULER_AUTHORIZATION": "Authorization",
		"SCHEDULER_REQUEST_INFO":  "x-http-request-info",
		"SCHEDULER_SESSION_INFO":  "x-http-session-info",
	} {
		if value := getEnv(env, ""); value != "" {
			headers[header] = value
		}
	}
	return headers
}

// UpdateFromSettings lets persisted settings override environment values.
// It should be called after the cache database is migrated.
func (c *Config) UpdateFromSettings(settingsRepo SettingsReader) error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"api_key", &c.APIKey},
		{"user_id", &c.Scheduler.UserID},
		{"account_id", &c.Scheduler.AccountID},
	}

	for _, o := range overrides {
		value, err := settingsRepo.Get(o.key)
		if err != nil {
			return fmt.Errorf("failed to get %s from settings: %w", o.key, err)
		}
		// Empty settings keep the environment value as fallback
		if value != nil && *value != "" {
			*o.dst = *value
		}
	}

	return nil
}

var validate = validator.New()

// Validate checks the loaded values against their struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("500ms") or plain seconds ("0.5").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvAsIntList(key string, defaultValue []int) ([]int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}
		out = append(out, n)
	}
	return out, nil
}

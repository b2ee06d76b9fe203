package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Data backends supported by the asset store.
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Supabase  SupabaseConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Inventory InventoryConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port         string
	CookieSecure bool
	LogLevel     string
}

// SupabaseConfig contains the project URL and keys of the managed backend.
type SupabaseConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
}

// DatabaseConfig selects the store used for asset reads and writes.
type DatabaseConfig struct {
	Backend string
	URL     string
}

// CacheConfig tunes the rendered list cache. A zero ListTTL, the default,
// disables it so every list load reads the store.
type CacheConfig struct {
	ListTTL time.Duration
}

// MongoDBConfig holds settings for the change journal. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to push inventory snapshots
// to Google Sheets. Both fields empty disables the sync.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// InventoryConfig holds scheduler-related settings.
type InventoryConfig struct {
	CronSchedule string
	Timezone     string
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

	listTTL, err := time.ParseDuration(getenvWithDefault("LIST_CACHE_TTL", "0"))
	if err != nil {
		return nil, fmt.Errorf("parse LIST_CACHE_TTL: %w", err)
	}

	cookieSecure, err := strconv.ParseBool(getenvWithDefault("COOKIE_SECURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("parse COOKIE_SECURE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getenvWithDefault("APP_PORT", "8080"),
			CookieSecure: cookieSecure,
			LogLevel:     getenvWithDefault("LOG_LEVEL", "info"),
		},
		Supabase: SupabaseConfig{
			URL:            strings.TrimSuffix(os.Getenv("SUPABASE_URL"), "/"),
			AnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
			ServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		},
		Database: DatabaseConfig{
			Backend: strings.ToLower(getenvWithDefault("DATA_BACKEND", BackendPostgREST)),
			URL:     os.Getenv("DATABASE_URL"),
		},
		Cache: CacheConfig{
			ListTTL: listTTL,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "assetdesk"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_INVENTORY_ID"),
		},
		Inventory: InventoryConfig{
			CronSchedule: getenvWithDefault("INVENTORY_SYNC_CRON", "0 2 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Shanghai"),
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

	switch {
	case c.Supabase.URL == "":
		return errors.New("SUPABASE_URL must be provided")
	case c.Supabase.AnonKey == "":
		return errors.New("SUPABASE_ANON_KEY must be provided")
	}

	switch c.Database.Backend {
	case BackendPostgREST:
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL must be provided when DATA_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unsupported DATA_BACKEND %q", c.Database.Backend)
	}

	if c.Cache.ListTTL < 0 {
		return errors.New("LIST_CACHE_TTL must not be negative")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_INVENTORY_ID must be provided together")
	}

	if c.SheetsEnabled() {
		if c.Inventory.CronSchedule == "" {
			return errors.New("INVENTORY_SYNC_CRON must be provided")
		}
		if _, err := time.LoadLocation(c.Inventory.Timezone); err != nil {
			return fmt.Errorf("invalid TIMEZONE %q: %w", c.Inventory.Timezone, err)
		}
	}

	return nil
}

// SheetsEnabled reports whether the nightly inventory sync is configured.
func (c *Config) SheetsEnabled() bool {
	return c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID != ""
}

// JournalEnabled reports whether mutations are journaled to MongoDB.
func (c *Config) JournalEnabled() bool {
	return c.MongoDB.URI != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

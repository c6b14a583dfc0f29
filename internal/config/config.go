package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PortfolioDir          string
	HTTPPort              string
	AdminAPIKey           string
	DatabaseURL           string
	RescanInterval        time.Duration
	SnapshotInterval      time.Duration
	CacheTTL              time.Duration
	SnapshotListLimit     int
	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
	LogLevel              slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		PortfolioDir:          envOrDefault("PORTFOLIO_DIR", "data/portfolios"),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           envOrDefault("ADMIN_API_KEY", ""),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		RescanInterval:        envOrDefaultDuration("RESCAN_INTERVAL", time.Minute),
		SnapshotInterval:      envOrDefaultPositiveDuration("SNAPSHOT_INTERVAL", 24*time.Hour),
		CacheTTL:              envOrDefaultDuration("CACHE_TTL", 5*time.Minute),
		SnapshotListLimit:     envOrDefaultInt("SNAPSHOT_LIST_LIMIT", 30),
		SheetsSpreadsheetID:   envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		LogLevel:              ParseLogLevel(os.Getenv("LOG_LEVEL")),
	}
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// SheetsEnabled reports whether Google Sheets export is configured.
func (c Config) SheetsEnabled() bool {
	return c.SheetsSpreadsheetID != "" && c.GoogleCredentialsJSON != ""
}

// SnapshotsEnabled reports whether the snapshot archive is configured.
func (c Config) SnapshotsEnabled() bool {
	return c.DatabaseURL != ""
}

// ParseLogLevel maps debug|info|warn|error to a slog level. Anything else is info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envOrDefaultPositiveDuration(key string, defaultVal time.Duration) time.Duration {
	d := envOrDefaultDuration(key, defaultVal)
	if d <= 0 {
		slog.Warn("non-positive duration env var, using default", "key", key, "default", defaultVal)
		return defaultVal
	}
	return d
}

// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	APIKey          string
	APISecret       string
	BaseURL         string
	DatabasePath    string
	CredentialsPath string
	FieldIDs        []string
	RefreshInterval time.Duration
	FrostThreshold  float64
	RequestTimeout  time.Duration
}

// Default values
const (
	defaultRefreshInterval = 15 * time.Minute
	defaultFrostThreshold  = 0.0
	defaultRequestTimeout  = 30 * time.Second
)

// Load reads configuration from config.yaml, .env files and environment
// variables. Environment variables win over the config file.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	file := loadFile(getConfigFilePath())
	if file == nil {
		file = &fileConfig{}
	}

	refreshDefault := defaultRefreshInterval
	if file.RefreshInterval != "" {
		if d, err := time.ParseDuration(file.RefreshInterval); err == nil {
			refreshDefault = d
		}
	}
	frostDefault := defaultFrostThreshold
	if file.FrostThreshold != nil {
		frostDefault = *file.FrostThreshold
	}

	cfg := &Config{
		APIKey:          getEnvString("AWHERE_API_KEY", file.APIKey),
		APISecret:       getEnvString("AWHERE_API_SECRET", file.APISecret),
		BaseURL:         getEnvString("AWHERE_BASE_URL", file.BaseURL),
		DatabasePath:    getEnvString("DATABASE_PATH", firstNonEmpty(file.DatabasePath, getDefaultDatabasePath())),
		CredentialsPath: getEnvString("CREDENTIALS_PATH", firstNonEmpty(file.CredentialsPath, getDefaultCredentialsPath())),
		FieldIDs:        file.Fields,
		RefreshInterval: getEnvDuration("AWHERE_REFRESH_INTERVAL", refreshDefault),
		FrostThreshold:  getEnvFloat("AWHERE_FROST_THRESHOLD", frostDefault),
		RequestTimeout:  getEnvDuration("AWHERE_REQUEST_TIMEOUT", defaultRequestTimeout),
	}
	if fields := os.Getenv("AWHERE_FIELDS"); fields != "" {
		cfg.FieldIDs = splitFields(fields)
	}

	if cfg.APIKey == "" || cfg.APISecret == "" {
		if _, err := os.Stat(cfg.CredentialsPath); err != nil {
			return nil, fmt.Errorf(
				"AWHERE_API_KEY and AWHERE_API_SECRET are required (set via env, config.yaml, or a credentials file)")
		}
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure credentials directory exists
	if err := ensureDir(filepath.Dir(cfg.CredentialsPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "awhere", ".env"),
			filepath.Join(home, ".awhere", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "awhere.db"
	}
	return filepath.Join(home, ".config", "awhere", "awhere.db")
}

// getDefaultCredentialsPath returns the default path for the credentials YAML file.
func getDefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "awhere-credentials.yaml"
	}
	return filepath.Join(home, ".config", "awhere", "credentials.yaml")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// splitFields parses a comma-separated field ID list.
func splitFields(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AccountID    string
	SecretKey    []byte
	DBPath       string
	StatePath    string
	SyncInterval time.Duration
	SyncSchedule string

	// AuthBaseURL and SetupBaseURL override the production endpoints,
	// primarily for tests against a local stub.
	AuthBaseURL  string
	SetupBaseURL string
}

// HasSecretKey returns true when an encryption key is configured. Without it
// the app still runs, but credentials and sessions are not persisted and
// every login prompts interactively.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// Load reads configuration from environment variables and returns a validated
// Config. ICLOUDCTL_ACCOUNT is required. ICLOUDCTL_SECRET_KEY is optional and
// must be 32 bytes base64-encoded when set. Optional variables with defaults:
// ICLOUDCTL_DB_PATH (XDG data dir), ICLOUDCTL_STATE_PATH (next to the DB),
// ICLOUDCTL_SYNC_INTERVAL (15m), ICLOUDCTL_SYNC_SCHEDULE (none; a cron
// expression that takes precedence over the interval when set).
func Load() (*Config, error) {
	accountID := os.Getenv("ICLOUDCTL_ACCOUNT")
	if accountID == "" {
		return nil, fmt.Errorf("ICLOUDCTL_ACCOUNT is required")
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("ICLOUDCTL_SECRET_KEY"); ok && v != "" {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("ICLOUDCTL_SECRET_KEY is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("ICLOUDCTL_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "icloudctl.db")
	if v, ok := os.LookupEnv("ICLOUDCTL_DB_PATH"); ok {
		dbPath = v
	}

	statePath := filepath.Join(filepath.Dir(dbPath), "daemon.json")
	if v, ok := os.LookupEnv("ICLOUDCTL_STATE_PATH"); ok {
		statePath = v
	}

	syncInterval := 15 * time.Minute
	if v, ok := os.LookupEnv("ICLOUDCTL_SYNC_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ICLOUDCTL_SYNC_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("ICLOUDCTL_SYNC_INTERVAL must be positive, got %q", v)
		}
		syncInterval = parsed
	}

	syncSchedule := os.Getenv("ICLOUDCTL_SYNC_SCHEDULE")
	if syncSchedule != "" && !gronx.New().IsValid(syncSchedule) {
		return nil, fmt.Errorf("ICLOUDCTL_SYNC_SCHEDULE has invalid cron expression %q", syncSchedule)
	}

	return &Config{
		AccountID:    accountID,
		SecretKey:    secretKey,
		DBPath:       dbPath,
		StatePath:    statePath,
		SyncInterval: syncInterval,
		SyncSchedule: syncSchedule,
		AuthBaseURL:  os.Getenv("ICLOUDCTL_AUTH_BASE_URL"),
		SetupBaseURL: os.Getenv("ICLOUDCTL_SETUP_BASE_URL"),
	}, nil
}

// defaultDataDir resolves the per-user data directory, honoring
// XDG_DATA_HOME before falling back to ~/.local/share.
func defaultDataDir() (string, error) {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "icloudctl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "icloudctl"), nil
}

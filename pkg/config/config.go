// Package config reads krakn settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	homeEnvVar     = "KRAKN_HOME"
	storageEnvVar  = "KRAKN_STORAGE"
	endpointEnvVar = "KRAKN_ENDPOINT"
	timeoutEnvVar  = "KRAKN_TIMEOUT"
	retriesEnvVar  = "KRAKN_RETRIES"

	// DefaultEndpoint is the GraphQL endpoint of the EDF GB Kraken deployment.
	DefaultEndpoint = "https://api.edfgb-kraken.energy/v1/graphql/"
	DefaultTimeout  = 30 * time.Second
	DefaultRetries  = 3
)

// Storage backends accepted by KRAKN_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageBolt   = "bolt"
)

// Config holds the resolved settings.
type Config struct {
	Home     string
	Storage  string
	Endpoint string
	Timeout  time.Duration
	Retries  int
}

// Load builds a Config from environment variables, falling back to defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Home:     GetEnv(homeEnvVar, filepath.Join(os.Getenv("HOME"), ".krakn")),
		Storage:  strings.ToLower(GetEnv(storageEnvVar, StorageSQLite)),
		Endpoint: NormalizeEndpoint(GetEnv(endpointEnvVar, DefaultEndpoint)),
		Timeout:  DefaultTimeout,
		Retries:  DefaultRetries,
	}

	if raw := GetEnv(timeoutEnvVar, ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", timeoutEnvVar, raw, err)
		}
		cfg.Timeout = d
	}

	if raw := GetEnv(retriesEnvVar, ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s %q: must be a positive integer", retriesEnvVar, raw)
		}
		cfg.Retries = n
	}

	if cfg.Storage != StorageSQLite && cfg.Storage != StorageBolt {
		return nil, fmt.Errorf("invalid %s %q (must be one of: %s, %s)", storageEnvVar, cfg.Storage, StorageSQLite, StorageBolt)
	}
	return cfg, nil
}

// StoragePath returns the file backing the selected storage backend.
func (c *Config) StoragePath() string {
	if c.Storage == StorageBolt {
		return filepath.Join(c.Home, "session.bolt")
	}
	return filepath.Join(c.Home, "session.db")
}

// NormalizeEndpoint turns a bare Kraken host name such as "api.edfgb-kraken.energy"
// into the full GraphQL URL. Values that already carry a scheme are returned unchanged.
func NormalizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + strings.TrimSuffix(raw, "/") + "/v1/graphql/"
}

// GetEnv returns the value of key, or fallback when it is unset or blank.
func GetEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

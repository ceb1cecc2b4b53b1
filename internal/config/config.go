package config

import (
	"os"
	"strconv"

	"calengine/domain/core"
)

// Config is the engine process configuration, read from the environment.
// The versioned configuration set (methods, profiles, declarations) loads
// separately via LoadConfigurationSet.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Engine   EngineConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds certificate store settings. URL may be empty when no
// repository is wired.
type DatabaseConfig struct {
	URL string
}

// EngineConfig holds the engine's own knobs.
type EngineConfig struct {
	ConfigSetPath  string
	CompatXLSXPath string
	SealingSecret  string
	BatchWorkers   int
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Engine: EngineConfig{
			ConfigSetPath:  os.Getenv("CONFIG_SET_PATH"),
			CompatXLSXPath: os.Getenv("COMPAT_MATRIX_PATH"),
			SealingSecret:  os.Getenv("SEALING_SECRET"),
			BatchWorkers:   envIntOr("BATCH_WORKERS", 16),
		},
	}

	if cfg.Engine.ConfigSetPath == "" {
		return nil, core.NewConfigurationError("CONFIG_SET_PATH", "is required")
	}
	if cfg.Engine.SealingSecret == "" {
		return nil, core.NewConfigurationError("SEALING_SECRET", "is required")
	}
	if cfg.Engine.BatchWorkers < 1 {
		return nil, core.NewConfigurationError("BATCH_WORKERS", "must be positive")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

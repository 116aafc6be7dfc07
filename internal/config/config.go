package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server
	ServerPort string

	// Ingestion
	MaxItemsPerSource   int    // cap on entries kept per playlist source
	RefreshCron         string // cron spec for periodic refresh of url/xtream sources
	RelayURL            string // optional same-origin relay endpoint for remote fetches
	FetchTimeoutSeconds int

	// Paths
	DatabaseFile string // $CONFIG_DIR/catalogo.db

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// FetchTimeout returns the remote fetch timeout as a duration
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("MAX_ITEMS_PER_SOURCE", 50000)
	viper.SetDefault("REFRESH_CRON", "0 */12 * * *")
	viper.SetDefault("FETCH_TIMEOUT_SECONDS", 60)

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "catalogo")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		ServerPort:          viper.GetString("SERVER_PORT"),
		MaxItemsPerSource:   viper.GetInt("MAX_ITEMS_PER_SOURCE"),
		RefreshCron:         viper.GetString("REFRESH_CRON"),
		RelayURL:            viper.GetString("RELAY_URL"),
		FetchTimeoutSeconds: viper.GetInt("FETCH_TIMEOUT_SECONDS"),
		DatabaseFile:        filepath.Join(configDir, "catalogo.db"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		LogFormat:           viper.GetString("LOG_FORMAT"),
	}

	if config.MaxItemsPerSource < 0 {
		return nil, fmt.Errorf("MAX_ITEMS_PER_SOURCE must not be negative")
	}

	return config, nil
}

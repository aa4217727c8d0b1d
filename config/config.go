package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingDatabaseURL is returned by Load when no connection string is configured.
var ErrMissingDatabaseURL = errors.New("database.url is not set (DATABASE_URL)")

// Config holds the server configuration.
type Config struct {
	DatabaseURL     string
	ConnectRetries  int
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment and, when LEDGER_CONFIG
// names a file, from that file. Environment variables win over the file:
// database.url is read from DATABASE_URL, http.addr from HTTP_ADDR and so on.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only consults keys viper already knows about.
	if err := v.BindEnv("database.url", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if path := os.Getenv("LEDGER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		DatabaseURL:     v.GetString("database.url"),
		ConnectRetries:  v.GetInt("database.connect_retries"),
		HTTPAddr:        v.GetString("http.addr"),
		ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Backend. Empty disables sign-in and every command.
	APIURL         string        `env:"MAILMATE_API_URL"`
	RequestTimeout time.Duration `env:"MAILMATE_REQUEST_TIMEOUT" envDefault:"60s"`

	// Sign-in listener; the backend's FRONTEND_URL must point here.
	CallbackAddr string `env:"MAILMATE_CALLBACK_ADDR" envDefault:"127.0.0.1:3000"`

	// Local state
	ConfigDir    string `env:"MAILMATE_CONFIG_DIR"` // default ~/.config/mailmate
	CacheSession bool   `env:"MAILMATE_CACHE_SESSION" envDefault:"true"`

	// Logging. The terminal belongs to the UI, so logs go to a file.
	LogLevel  string `env:"MAILMATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"MAILMATE_LOG_FORMAT" envDefault:"text"` // "json" or "text"
	LogFile   string `env:"MAILMATE_LOG_FILE"`                     // default <ConfigDir>/mailmate.log
}

// APIConfigured reports whether a backend URL was provided.
func (c *Config) APIConfigured() bool { return c.APIURL != "" }

// CallbackOrigin is the origin sign-in results must be addressed to.
func (c *Config) CallbackOrigin() string { return "http://" + c.CallbackAddr }

// DBPath is the local SQLite database.
func (c *Config) DBPath() string { return filepath.Join(c.ConfigDir, "mailmate.db") }

// Load reads configuration from the environment. envFile, when set, must
// exist; otherwise a .env in the working directory is used if present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg.ConfigDir = filepath.Join(home, ".config", "mailmate")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.ConfigDir, "mailmate.log")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	host, port, err := net.SplitHostPort(c.CallbackAddr)
	if err != nil {
		return fmt.Errorf("MAILMATE_CALLBACK_ADDR %q: %w", c.CallbackAddr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("MAILMATE_CALLBACK_ADDR %q must be host:port", c.CallbackAddr)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("MAILMATE_REQUEST_TIMEOUT must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("MAILMATE_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

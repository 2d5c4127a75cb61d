package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// Config holds the daemon configuration. Values come from the TOML file
// first, then ZAPGATE_* environment variables override them.
type Config struct {
	// DataDir holds the store database, the protocol session database and logs.
	DataDir string `toml:"data_dir" env:"ZAPGATE_DATA_DIR"`

	// Instance is the account this daemon hosts a live protocol client for.
	Instance string `toml:"instance" env:"ZAPGATE_INSTANCE"`

	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string `toml:"http_addr" env:"ZAPGATE_HTTP_ADDR"`

	// ServerURL is the public URL reported in webhook payloads.
	ServerURL string `toml:"server_url" env:"ZAPGATE_SERVER_URL"`

	// APIKey guards the HTTP API and is exposed to webhook consumers.
	// Empty disables authentication.
	APIKey string `toml:"api_key" env:"ZAPGATE_API_KEY"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" env:"ZAPGATE_LOG_LEVEL"`

	// OracleTimeout bounds a single identifier-oracle lookup.
	OracleTimeout Duration `toml:"oracle_timeout" env:"ZAPGATE_ORACLE_TIMEOUT"`
}

// Duration is a toml/env friendly wrapper around time.Duration.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for both toml and env.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:       filepath.Join(home, ".zapgate"),
		Instance:      "main",
		HTTPAddr:      "127.0.0.1:8084",
		ServerURL:     "http://127.0.0.1:8084",
		LogLevel:      "info",
		OracleTimeout: Duration(5 * time.Second),
	}
}

// Load reads the config file at path (missing file is fine, defaults apply)
// and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = Duration(5 * time.Second)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DEFAULT_DIRECTORY_URL   = "https://jsonplaceholder.typicode.com"
	DEFAULT_DEBOUNCE        = 300 * time.Millisecond
	DEFAULT_REQUEST_TIMEOUT = 10 * time.Second
	DEFAULT_LOG_LEVEL       = "info"
	DEFAULT_SERVE_ADDR      = "127.0.0.1:8089"
)

type Config struct {
	DirectoryURL   string        `yaml:"directory_url"`
	Debounce       time.Duration `yaml:"debounce"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
	CleanLogFile   bool          `yaml:"clean_log_file"`
	Serve          ServeConfig   `yaml:"serve"`
}

type ServeConfig struct {
	Addr string `yaml:"addr"`
	// Database is the SQLite file; empty means the default under the data dir
	Database string `yaml:"database"`
	// Seed is an optional YAML file of users loaded at startup
	Seed string `yaml:"seed"`
}

func Default() Config {
	return Config{
		DirectoryURL:   DEFAULT_DIRECTORY_URL,
		Debounce:       DEFAULT_DEBOUNCE,
		RequestTimeout: DEFAULT_REQUEST_TIMEOUT,
		LogLevel:       DEFAULT_LOG_LEVEL,
		Serve: ServeConfig{
			Addr: DEFAULT_SERVE_ADDR,
		},
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	parsed, err := url.Parse(c.DirectoryURL)
	if err != nil {
		return fmt.Errorf("directory_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("directory_url must be an http(s) url, got %q", c.DirectoryURL)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// GetLogLevel falls back to info when the level cannot be parsed.
func (c Config) GetLogLevel() zap.AtomicLevel {
	logLevel, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		logLevel = zap.NewAtomicLevel()
	}
	return logLevel
}

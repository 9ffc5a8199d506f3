package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredential is returned when no API key is available for a real request.
var ErrMissingCredential = errors.New("OPENAI_API_KEY environment variable is not set")

const (
	DefaultModel        = "gpt-4o"
	DefaultMaxFileChars = 16000
	DefaultTimeout      = 5 * time.Minute
	historyFileName     = "conversation.txt"
)

// Config holds settings from the config file and environment.
type Config struct {
	Model                 string        `yaml:"model"`
	BaseURL               string        `yaml:"base_url"`
	HistoryPath           string        `yaml:"history_path"`
	Timeout               time.Duration `yaml:"timeout"`
	MaxFileChars          int           `yaml:"max_file_chars"`
	PreferredTechnologies []string      `yaml:"preferred_technologies"`

	// APIKey only ever comes from the environment.
	APIKey string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:        DefaultModel,
		HistoryPath:  filepath.Join(os.TempDir(), historyFileName),
		Timeout:      DefaultTimeout,
		MaxFileChars: DefaultMaxFileChars,
		PreferredTechnologies: []string{
			"Golang",
			"Angular (with bootstrap)",
			"Typescript",
			"Postgresql",
			"NestJS",
			"Python",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/gpt/config.yaml, or ~/.config/gpt/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".gpt", "config.yaml")
	}
	return filepath.Join(dir, "gpt", "config.yaml")
}

// Load reads the config file at path on top of the defaults and applies env overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		c.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GPT_HISTORY")); v != "" {
		c.HistoryPath = v
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.HistoryPath == "" {
		c.HistoryPath = d.HistoryPath
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxFileChars <= 0 {
		c.MaxFileChars = d.MaxFileChars
	}
}

// RequireCredential fails unless an API key is set. Debug runs never reach the network.
func (c *Config) RequireCredential(debug bool) error {
	if debug || c.APIKey != "" {
		return nil
	}
	return ErrMissingCredential
}

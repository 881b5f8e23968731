package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Environment overrides, read from the process env or a .env file
const (
	EnvAPIURL   = "INVOICEDESK_API_URL"
	EnvAPIToken = "INVOICEDESK_API_TOKEN"
	EnvLogLevel = "INVOICEDESK_LOG_LEVEL"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Config struct {
	// Remote invoice API
	API APIConfig `yaml:"api"`

	// Terminal UI behaviour
	UI UIConfig `yaml:"ui"`

	// Invoice export
	Export ExportConfig `yaml:"export"`

	// Diagnostic log
	Log LogConfig `yaml:"log"`

	// fileValues holds the file's value for settings an env var overrides,
	// keyed like Set. Save writes these back instead of the override.
	fileValues map[string]string
}

type APIConfig struct {
	BaseURL      string        `yaml:"base_url" validate:"required,url"`
	DeletePrefix string        `yaml:"delete_prefix"`          // Path prefix for DELETE calls ("/api" or "")
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"` // Per-request timeout
	RetryMax     int           `yaml:"retry_max" validate:"gte=0,lte=10"`
	PageSize     int           `yaml:"page_size" validate:"gte=1"` // Must match the server's page size

	// Token is never written to disk; it comes from the keyring or env.
	Token string `yaml:"-"`
}

type UIConfig struct {
	Theme             string `yaml:"theme" validate:"oneof=light dark"`
	ResetPageOnFilter bool   `yaml:"reset_page_on_filter"`
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir" validate:"required"`
}

type LogConfig struct {
	Path  string `yaml:"path" validate:"required"`
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// configDir returns ~/.config/invoicedesk
func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "invoicedesk")
}

// DefaultConfigPath returns ~/.config/invoicedesk/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := configDir()
	return &Config{
		API: APIConfig{
			BaseURL:      "http://localhost:8000",
			DeletePrefix: "/api",
			Timeout:      15 * time.Second,
			RetryMax:     2,
			PageSize:     10,
		},
		UI: UIConfig{
			Theme: ThemeLight,
		},
		Export: ExportConfig{
			OutputDir: filepath.Join(dir, "exports"),
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "invoicedesk.log"),
			Level: "info",
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads .env (if present) and then the default config path
func LoadDefault() (*Config, error) {
	// A missing .env is the normal case
	_ = godotenv.Load()
	return Load(DefaultConfigPath())
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.keepFileValue("api.base_url")
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.keepFileValue("log.level")
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) keepFileValue(key string) {
	if c.fileValues == nil {
		c.fileValues = make(map[string]string)
	}
	c.fileValues[key] = c.get(key)
}

// get returns the settings an env var can override
func (c *Config) get(key string) string {
	switch key {
	case "api.base_url":
		return c.API.BaseURL
	case "log.level":
		return c.Log.Level
	}
	return ""
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to the given path. Env overrides are not persisted.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	out := *c
	for key, v := range c.fileValues {
		if err := out.set(key, v); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the log and export directories
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(filepath.Dir(c.Log.Path), 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.Export.OutputDir, 0755)
}

// Set changes one setting by its dotted yaml key. Changing a setting that an
// env var overrides makes the new value the one Save writes.
func (c *Config) Set(key, value string) error {
	before := c.get(key)
	if err := c.set(key, value); err != nil {
		return err
	}
	if _, ok := c.fileValues[key]; ok && c.get(key) != before {
		c.fileValues = lo.OmitByKeys(c.fileValues, []string{key})
	}
	return c.Validate()
}

func (c *Config) set(key, value string) error {
	switch key {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.delete_prefix":
		c.API.DeletePrefix = value
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
		c.API.Timeout = d
	case "api.retry_max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("api.retry_max: %w", err)
		}
		c.API.RetryMax = n
	case "api.page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("api.page_size: %w", err)
		}
		c.API.PageSize = n
	case "ui.theme":
		c.UI.Theme = strings.ToLower(value)
	case "ui.reset_page_on_filter":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ui.reset_page_on_filter: %w", err)
		}
		c.UI.ResetPageOnFilter = b
	case "export.output_dir":
		c.Export.OutputDir = value
	case "log.level":
		c.Log.Level = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

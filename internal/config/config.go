// ABOUTME: Configuration loading and parsing for the sam chat client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete sam client configuration
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Assistant AssistantConfig `yaml:"assistant"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProviderConfig holds the identity provider settings.
// The client speaks the authorization-code-with-refresh-token flow against
// a single fixed provider; there is no multi-provider support.
type ProviderConfig struct {
	Domain      string `yaml:"domain"` // e.g. https://auth.example.com
	ClientID    string `yaml:"client_id"`
	RedirectURI string `yaml:"redirect_uri"` // must be a loopback URI the callback listener can bind
	Scope       string `yaml:"scope"`

	TokenTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TokenTimeoutRaw string `yaml:"token_timeout"`
}

// AssistantConfig holds the assistant endpoint settings
type AssistantConfig struct {
	BaseURL string `yaml:"base_url"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// StorageConfig holds local persistence configuration
type StorageConfig struct {
	// TokenPath is the SQLite database holding the session credentials
	TokenPath string `yaml:"token_path"`
	// ArchivePath is the SQLite database holding the conversation archive.
	// Empty disables archiving.
	ArchivePath string `yaml:"archive_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the config omits optional fields
const (
	DefaultTokenTimeout     = 15 * time.Second
	DefaultAssistantTimeout = 60 * time.Second
	DefaultScope            = "openid email profile"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses raw YAML configuration bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in optional fields the file omitted
func (c *Config) applyDefaults() {
	if c.Provider.Scope == "" {
		c.Provider.Scope = DefaultScope
	}
	if c.Provider.TokenTimeout == 0 {
		c.Provider.TokenTimeout = DefaultTokenTimeout
	}
	if c.Assistant.Timeout == 0 {
		c.Assistant.Timeout = DefaultAssistantTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Provider.Domain == "" {
		return fmt.Errorf("provider.domain is required")
	}
	if u, err := url.Parse(c.Provider.Domain); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("provider.domain %q is not an absolute URL", c.Provider.Domain)
	}
	if c.Provider.ClientID == "" {
		return fmt.Errorf("provider.client_id is required")
	}
	if c.Provider.RedirectURI == "" {
		return fmt.Errorf("provider.redirect_uri is required")
	}
	if u, err := url.Parse(c.Provider.RedirectURI); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("provider.redirect_uri %q is not an absolute URL", c.Provider.RedirectURI)
	}

	if c.Assistant.BaseURL == "" {
		return fmt.Errorf("assistant.base_url is required")
	}

	if c.Storage.TokenPath == "" {
		return fmt.Errorf("storage.token_path is required")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Provider.TokenTimeoutRaw != "" {
		cfg.Provider.TokenTimeout, err = time.ParseDuration(cfg.Provider.TokenTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing provider.token_timeout %q: %w", cfg.Provider.TokenTimeoutRaw, err)
		}
	}

	if cfg.Assistant.TimeoutRaw != "" {
		cfg.Assistant.Timeout, err = time.ParseDuration(cfg.Assistant.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing assistant.timeout %q: %w", cfg.Assistant.TimeoutRaw, err)
		}
	}

	return nil
}

// ABOUTME: Configuration loading and parsing for quorum-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete quorum-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	SearxNG   SearxNGConfig   `yaml:"searxng"`
	Providers ProvidersConfig `yaml:"providers"`
	Agents    AgentsConfig    `yaml:"agents"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SearxNGConfig holds search backend configuration
type SearxNGConfig struct {
	URL string `yaml:"url"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// ProvidersConfig holds model provider credentials and model lists
type ProvidersConfig struct {
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// OpenAIConfig holds OpenAI (or OpenAI-compatible) provider configuration
type OpenAIConfig struct {
	APIKey          string   `yaml:"api_key"`
	BaseURL         string   `yaml:"base_url"` // optional, for compatible endpoints
	ChatModels      []string `yaml:"chat_models"`
	EmbeddingModels []string `yaml:"embedding_models"`
}

// AnthropicConfig holds Anthropic provider configuration
type AnthropicConfig struct {
	APIKey     string   `yaml:"api_key"`
	BaseURL    string   `yaml:"base_url"`
	ChatModels []string `yaml:"chat_models"`
}

// AgentsConfig holds agent-related timing configuration
type AgentsConfig struct {
	StreamTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	StreamTimeoutRaw string `yaml:"stream_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, suitable for
// running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.SearxNG.Timeout = 5 * time.Second
	cfg.Agents.StreamTimeout = 2 * time.Minute
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./quorum.db"
	}
	if c.SearxNG.URL == "" {
		c.SearxNG.URL = "http://localhost:8888"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// At least one chat provider must be usable, otherwise every request
	// would fail at model resolution.
	if c.Providers.OpenAI.APIKey == "" && c.Providers.Anthropic.APIKey == "" {
		return fmt.Errorf("at least one provider api_key is required (providers.openai or providers.anthropic)")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	cfg.SearxNG.Timeout = 5 * time.Second
	if cfg.SearxNG.TimeoutRaw != "" {
		cfg.SearxNG.Timeout, err = time.ParseDuration(cfg.SearxNG.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing searxng.timeout %q: %w", cfg.SearxNG.TimeoutRaw, err)
		}
	}

	cfg.Agents.StreamTimeout = 2 * time.Minute
	if cfg.Agents.StreamTimeoutRaw != "" {
		cfg.Agents.StreamTimeout, err = time.ParseDuration(cfg.Agents.StreamTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing agents.stream_timeout %q: %w", cfg.Agents.StreamTimeoutRaw, err)
		}
	}

	return nil
}

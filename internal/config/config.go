// ABOUTME: Configuration loading and parsing for chat-relay
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete chat-relay configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Memory   MemoryConfig   `yaml:"memory"`
	Registry RegistryConfig `yaml:"registry"`
	LiveKit  LiveKitConfig  `yaml:"livekit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider string `yaml:"provider"` // "groq" or "gemini"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // optional endpoint override

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// MemoryConfig holds memory service and fallback store configuration
type MemoryConfig struct {
	Mem0URL      string `yaml:"mem0_url"`
	APIKey       string `yaml:"api_key"`
	DatabasePath string `yaml:"database_path"`
	HistoryLimit int    `yaml:"history_limit"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// RegistryConfig holds agent registry configuration
type RegistryConfig struct {
	URL          string `yaml:"url"` // remote registry; empty means builtin only
	DefaultAgent string `yaml:"default_agent"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

// LiveKitConfig holds WebRTC room server credentials
type LiveKitConfig struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`

	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the corresponding field is absent from the file.
const (
	DefaultHTTPAddr     = "localhost:8000"
	DefaultProvider     = "groq"
	DefaultModel        = "llama-3.1-8b-instant"
	DefaultAgent        = "support-agent"
	DefaultHistoryLimit = 10

	defaultLLMTimeout    = 30 * time.Second
	defaultMemoryTimeout = 5 * time.Second
	defaultFetchTimeout  = 5 * time.Second
	defaultTokenTTL      = 6 * time.Hour
)

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

	if err := cfg.parseDurations(); err != nil {
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

// applyDefaults fills in zero values that have a sensible default.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = defaultLLMTimeout
	}
	if c.Memory.Timeout == 0 {
		c.Memory.Timeout = defaultMemoryTimeout
	}
	if c.Memory.HistoryLimit == 0 {
		c.Memory.HistoryLimit = DefaultHistoryLimit
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = defaultFetchTimeout
	}
	if c.Registry.DefaultAgent == "" {
		c.Registry.DefaultAgent = DefaultAgent
	}
	if c.LiveKit.TokenTTL == 0 {
		c.LiveKit.TokenTTL = defaultTokenTTL
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "groq", "gemini":
	default:
		return fmt.Errorf("llm.provider must be \"groq\" or \"gemini\", got %q", c.LLM.Provider)
	}

	if c.Memory.DatabasePath == "" {
		return fmt.Errorf("memory.database_path is required")
	}

	if c.Memory.HistoryLimit < 0 {
		return fmt.Errorf("memory.history_limit cannot be negative")
	}

	// LiveKit credentials travel as a pair
	if (c.LiveKit.APIKey == "") != (c.LiveKit.APISecret == "") {
		return fmt.Errorf("livekit.api_key and livekit.api_secret must be set together")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func (c *Config) parseDurations() error {
	fields := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{c.LLM.TimeoutRaw, &c.LLM.Timeout, "llm.timeout"},
		{c.Memory.TimeoutRaw, &c.Memory.Timeout, "memory.timeout"},
		{c.Registry.TimeoutRaw, &c.Registry.Timeout, "registry.timeout"},
		{c.LiveKit.TokenTTLRaw, &c.LiveKit.TokenTTL, "livekit.token_ttl"},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}

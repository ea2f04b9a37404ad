package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store drivers.
const (
	SessionDriverMemory = "memory"
	SessionDriverSQLite = "sqlite"
)

// Config holds the grocery server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Aito     AitoConfig     `yaml:"aito"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Sessions SessionsConfig `yaml:"sessions"`
	Cache    CacheConfig    `yaml:"cache"`
	CORS     CORSConfig     `yaml:"cors"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AitoConfig holds predictive database settings.
type AitoConfig struct {
	URL        string          `yaml:"url"`
	APIKey     string          `yaml:"api_key"`
	TimeoutSec int             `yaml:"timeout_sec"`
	UploadSec  int             `yaml:"upload_timeout_sec"`
	MaxRetries int             `yaml:"max_retries"`
	BaseDelay  time.Duration   `yaml:"base_delay"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
}

// RateLimitConfig bounds calls to the predictive database.
type RateLimitConfig struct {
	MaxCalls int           `yaml:"max_calls"` // 0 disables limiting
	Window   time.Duration `yaml:"window"`
}

// ThresholdConfig holds tunable confidence cutoffs.
type ThresholdConfig struct {
	Autofill float64 `yaml:"autofill"`
}

// OpenAIConfig holds Azure OpenAI settings. An empty key leaves the chat disabled.
type OpenAIConfig struct {
	ModelURL     string  `yaml:"model_url"`
	ResourceName string  `yaml:"resource_name"`
	APIKey       string  `yaml:"api_key"`
	APIVersion   string  `yaml:"api_version"`
	Deployment   string  `yaml:"deployment"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// SessionsConfig selects the chat session store.
type SessionsConfig struct {
	Driver string        `yaml:"driver"` // memory (default), sqlite
	Path   string        `yaml:"path"`
	TTL    time.Duration `yaml:"ttl"` // sqlite only, 0 keeps sessions forever
}

// CacheConfig holds the optional Redis response cache.
type CacheConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Addrs            []string      `yaml:"addrs"`
	Password         string        `yaml:"password"`
	TTL              time.Duration `yaml:"ttl"`
	ReadinessTimeout int           `yaml:"readiness_timeout_sec"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in raw YAML and returns a validated config.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3001
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Aito.TimeoutSec <= 0 {
		c.Aito.TimeoutSec = 30
	}
	if c.Aito.UploadSec <= 0 {
		c.Aito.UploadSec = 300
	}
	if c.Aito.BaseDelay <= 0 {
		c.Aito.BaseDelay = time.Second
	}
	if c.Aito.RateLimit.Window <= 0 {
		c.Aito.RateLimit.Window = time.Minute
	}
	if c.Aito.Thresholds.Autofill <= 0 {
		c.Aito.Thresholds.Autofill = 0.4
	}
	if c.OpenAI.Deployment == "" {
		c.OpenAI.Deployment = "gpt-4"
	}
	if c.OpenAI.APIVersion == "" {
		c.OpenAI.APIVersion = "2024-02-15-preview"
	}
	if c.OpenAI.Temperature <= 0 {
		c.OpenAI.Temperature = 0.7
	}
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = 2000
	}
	if c.Sessions.Driver == "" {
		c.Sessions.Driver = SessionDriverMemory
	}
	if c.Sessions.Driver == SessionDriverSQLite && c.Sessions.Path == "" {
		c.Sessions.Path = "sessions.db"
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	c.CORS.AllowedOrigins = compact(c.CORS.AllowedOrigins)
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	c.Auth.APIKeys = compact(c.Auth.APIKeys)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Aito.URL == "" {
		return fmt.Errorf("aito.url is required")
	}
	if c.Aito.MaxRetries < 0 {
		return fmt.Errorf("aito.max_retries must not be negative, got %d", c.Aito.MaxRetries)
	}
	if c.Aito.RateLimit.MaxCalls < 0 {
		return fmt.Errorf("aito.rate_limit.max_calls must not be negative, got %d", c.Aito.RateLimit.MaxCalls)
	}
	if t := c.Aito.Thresholds.Autofill; t > 1 {
		return fmt.Errorf("aito.thresholds.autofill must be in (0, 1], got %g", t)
	}
	switch c.Sessions.Driver {
	case SessionDriverMemory, SessionDriverSQLite:
		// ok
	default:
		return fmt.Errorf("sessions.driver must be %q or %q, got %q",
			SessionDriverMemory, SessionDriverSQLite, c.Sessions.Driver)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	return nil
}

// compact drops blank entries left by unset env variables.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func validConfig() Config {
	cfg := Config{Aito: AitoConfig{URL: "https://grocery.aito.app"}}
	cfg.ApplyDefaults()
	return cfg
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("REACT_APP_AITO_URL", "https://shop.aito.app")
	t.Setenv("REACT_APP_AITO_API_KEY", "ro-key")
	t.Setenv("REACT_APP_CHAT_BACKEND_URL", "")

	raw := []byte(`
http:
  port: ${PORT:-3001}
aito:
  url: ${REACT_APP_AITO_URL}
  api_key: ${REACT_APP_AITO_API_KEY}
  rate_limit:
    max_calls: 100
    window: 1m
cors:
  allowed_origins:
    - ${REACT_APP_CHAT_BACKEND_URL}
    - http://localhost:3000
`)

	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 3001 {
		t.Errorf("expected port 3001, got %d", cfg.HTTP.Port)
	}
	if cfg.Aito.URL != "https://shop.aito.app" || cfg.Aito.APIKey != "ro-key" {
		t.Errorf("unexpected aito config %+v", cfg.Aito)
	}
	if cfg.Aito.RateLimit.Window != time.Minute {
		t.Errorf("expected 1m window, got %s", cfg.Aito.RateLimit.Window)
	}
	if diff := cmp.Diff([]string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("allowed origins mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 3001 {
		t.Errorf("expected port 3001, got %d", cfg.HTTP.Port)
	}
	if cfg.Aito.Thresholds.Autofill != 0.4 {
		t.Errorf("expected autofill threshold 0.4, got %g", cfg.Aito.Thresholds.Autofill)
	}
	if cfg.OpenAI.Deployment != "gpt-4" || cfg.OpenAI.APIVersion != "2024-02-15-preview" {
		t.Errorf("unexpected openai defaults %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.MaxTokens != 2000 {
		t.Errorf("expected max tokens 2000, got %d", cfg.OpenAI.MaxTokens)
	}
	if cfg.Sessions.Driver != SessionDriverMemory {
		t.Errorf("expected memory sessions, got %q", cfg.Sessions.Driver)
	}
	if diff := cmp.Diff([]string{"*"}, cfg.CORS.AllowedOrigins); diff != "" {
		t.Errorf("allowed origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected cache ttl 5m, got %s", cfg.Cache.TTL)
	}
}

func TestApplyDefaults_SQLitePath(t *testing.T) {
	cfg := Config{Sessions: SessionsConfig{Driver: SessionDriverSQLite}}
	cfg.ApplyDefaults()
	if cfg.Sessions.Path != "sessions.db" {
		t.Errorf("expected default sqlite path, got %q", cfg.Sessions.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing aito url",
			mutate:  func(c *Config) { c.Aito.URL = "" },
			wantErr: "aito.url is required",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.HTTP.Port = 70000 },
			wantErr: "http.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Aito.MaxRetries = -1 },
			wantErr: "aito.max_retries must not be negative",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Aito.Thresholds.Autofill = 1.5 },
			wantErr: "aito.thresholds.autofill",
		},
		{
			name:    "unknown session driver",
			mutate:  func(c *Config) { c.Sessions.Driver = "postgres" },
			wantErr: `sessions.driver must be "memory" or "sqlite", got "postgres"`,
		},
		{
			name:    "cache without addrs",
			mutate:  func(c *Config) { c.Cache.Enabled = true },
			wantErr: "cache.addrs is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	t.Setenv("GROCERY_UNSET_FOR_TEST", "")
	got := string(expandEnvVars([]byte("a: ${GROCERY_UNSET_FOR_TEST:-fallback}")))
	if got != "a: fallback" {
		t.Errorf("expected default substitution, got %q", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("REACT_APP_AITO_URL", "https://shop.aito.app")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			if _, err := Load(env); err != nil {
				t.Fatalf("load %s: %v", env, err)
			}
		})
	}
}

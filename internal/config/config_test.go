package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Server.Host != "api.bageldb.ai" {
		t.Errorf("expected Host=api.bageldb.ai, got %q", cfg.Server.Host)
	}
	if cfg.Server.SSL == nil || !*cfg.Server.SSL {
		t.Error("expected SSL=true by default")
	}
	if cfg.Server.UserID != "default_tenant" {
		t.Errorf("expected UserID=default_tenant, got %q", cfg.Server.UserID)
	}
	if cfg.Server.TimeoutSec != 60 {
		t.Errorf("expected TimeoutSec=60, got %d", cfg.Server.TimeoutSec)
	}
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("expected default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Server.RateBurst != 0 {
		t.Errorf("expected RateBurst=0 without a rate limit, got %d", cfg.Server.RateBurst)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	ssl := false
	cfg := Config{
		Server: ServerConfig{
			Host: "localhost", Port: 8088, SSL: &ssl, UserID: "alice",
			TimeoutSec: 5, RateLimit: 10,
		},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
	}
	cfg.ApplyDefaults()

	if cfg.Server.Host != "localhost" || *cfg.Server.SSL {
		t.Errorf("server overridden: %+v", cfg.Server)
	}
	if cfg.Server.UserID != "alice" || cfg.Server.TimeoutSec != 5 {
		t.Errorf("server overridden: %+v", cfg.Server)
	}
	if cfg.Server.RateBurst != 1 {
		t.Errorf("expected RateBurst=1 with a rate limit, got %d", cfg.Server.RateBurst)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model overridden: %q", cfg.Embedding.Model)
	}
}

func TestApplyDefaults_BaseURLSkipsHost(t *testing.T) {
	cfg := Config{Server: ServerConfig{BaseURL: "http://localhost:8088"}}
	cfg.ApplyDefaults()
	if cfg.Server.Host != "" {
		t.Errorf("expected empty Host when BaseURL is set, got %q", cfg.Server.Host)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
		msg  string
	}{
		{"bad base url", func(c *Config) { c.Server.BaseURL = "localhost:8088" }, "server.base_url"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"batch too large", func(c *Config) { c.Embedding.BatchSize = 4096 }, "embedding.batch_size"},
		{"cache without embedder", func(c *Config) { c.Cache.Addrs = []string{"localhost:6379"} }, "cache.addrs"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			tt.mut(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.msg)
			}
		})
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("BAGEL_TEST_API_KEY", "secret")

	data := []byte(`
server:
  host: ${BAGEL_TEST_HOST:-localhost}
  port: 8088
  ssl: false
  api_key: ${BAGEL_TEST_API_KEY}
logging:
  level: debug
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want default from expansion", cfg.Server.Host)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("APIKey = %q, want env value", cfg.Server.APIKey)
	}
	if *cfg.Server.SSL {
		t.Error("expected SSL=false")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("server: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("server:\n  port: -1\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bagel.yaml")
	if err := os.WriteFile(path, []byte("server:\n  base_url: http://localhost:8088\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.BaseURL != "http://localhost:8088" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}

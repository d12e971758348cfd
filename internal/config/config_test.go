// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:9090"

database:
  path: "./test.db"

searxng:
  url: "http://searx.internal:8888"
  timeout: "10s"

providers:
  openai:
    api_key: "sk-test"
    chat_models:
      - "gpt-4o-mini"
      - "gpt-4o"
    embedding_models:
      - "text-embedding-3-small"
  anthropic:
    api_key: "sk-ant-test"
    chat_models:
      - "claude-sonnet-4-5"

agents:
  stream_timeout: "90s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9090" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9090")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.SearxNG.URL != "http://searx.internal:8888" {
		t.Errorf("SearxNG.URL = %q, want %q", cfg.SearxNG.URL, "http://searx.internal:8888")
	}
	if cfg.SearxNG.Timeout != 10*time.Second {
		t.Errorf("SearxNG.Timeout = %v, want %v", cfg.SearxNG.Timeout, 10*time.Second)
	}
	if len(cfg.Providers.OpenAI.ChatModels) != 2 {
		t.Errorf("OpenAI.ChatModels has %d entries, want 2", len(cfg.Providers.OpenAI.ChatModels))
	}
	if len(cfg.Providers.OpenAI.EmbeddingModels) != 1 {
		t.Errorf("OpenAI.EmbeddingModels has %d entries, want 1", len(cfg.Providers.OpenAI.EmbeddingModels))
	}
	if cfg.Providers.Anthropic.APIKey != "sk-ant-test" {
		t.Errorf("Anthropic.APIKey = %q, want %q", cfg.Providers.Anthropic.APIKey, "sk-ant-test")
	}
	if cfg.Agents.StreamTimeout != 90*time.Second {
		t.Errorf("Agents.StreamTimeout = %v, want %v", cfg.Agents.StreamTimeout, 90*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("QUORUM_TEST_API_KEY", "sk-from-env")

	configPath := writeConfig(t, `
providers:
  openai:
    api_key: "${QUORUM_TEST_API_KEY}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Providers.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("OpenAI.APIKey = %q, want %q", cfg.Providers.OpenAI.APIKey, "sk-from-env")
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	os.Unsetenv("QUORUM_TEST_MISSING_VAR")

	configPath := writeConfig(t, `
providers:
  anthropic:
    api_key: "sk-ant-test"
searxng:
  url: "${QUORUM_TEST_MISSING_VAR}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Empty expansion falls through to the default.
	if cfg.SearxNG.URL != "http://localhost:8888" {
		t.Errorf("SearxNG.URL = %q, want default", cfg.SearxNG.URL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  openai:
    api_key: "sk-test"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "./quorum.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
	if cfg.SearxNG.Timeout != 5*time.Second {
		t.Errorf("SearxNG.Timeout = %v, want default 5s", cfg.SearxNG.Timeout)
	}
	if cfg.Agents.StreamTimeout != 2*time.Minute {
		t.Errorf("Agents.StreamTimeout = %v, want default 2m", cfg.Agents.StreamTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default", cfg.Logging.Level)
	}
}

func TestLoad_MissingProviderKeys(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: "./test.db"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for missing provider keys")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error = %v, want mention of api_key", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  openai:
    api_key: "sk-test"
agents:
  stream_timeout: "not-a-duration"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "stream_timeout") {
		t.Errorf("error = %v, want mention of stream_timeout", err)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
providers:
  openai:
    api_key: "sk-test"
logging:
  level: "verbose"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid log level")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.LLMProviders) == 0 {
		t.Error("expected default LLM providers")
	}
	openai, ok := cfg.GetLLMProvider("openai")
	if !ok || openai.APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Defaults.LLMProvider != "openai" {
		t.Errorf("default provider = %q", cfg.Defaults.LLMProvider)
	}
	if cfg.Extraction.ContextWindow != 128000 {
		t.Errorf("context window = %d", cfg.Extraction.ContextWindow)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestEnabledLLMProviders(t *testing.T) {
	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"on":  {Type: "openai", Enabled: true},
			"off": {Type: "ollama", Enabled: false},
		},
	}
	enabled := cfg.EnabledLLMProviders()
	if len(enabled) != 1 {
		t.Fatalf("enabled = %v", enabled)
	}
	if _, ok := enabled["on"]; !ok {
		t.Error("expected 'on' provider")
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	os.Setenv("TEST_SAMP_KEY", "sk-test")
	defer os.Unsetenv("TEST_SAMP_KEY")

	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${TEST_SAMP_KEY}",
				TimeoutSeconds: 90,
				Enabled:        true,
			},
		},
		Defaults: DefaultsCfg{LLMProvider: "openai"},
	}

	rc := cfg.ToProviderRegistryConfig()
	if rc.DefaultLLM != "openai" {
		t.Errorf("default = %q", rc.DefaultLLM)
	}
	pc := rc.LLMProviders["openai"]
	if pc.APIKey != "sk-test" {
		t.Errorf("api key not resolved: %q", pc.APIKey)
	}
	if pc.Timeout != 90*time.Second {
		t.Errorf("timeout = %v", pc.Timeout)
	}
}

func TestNewManagerLoadsFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: /tmp/test-samp.db
extraction:
  context_window: 32000
`
	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cm, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := cm.Get()
	if cfg.Server.Port != 9090 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/test-samp.db" {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Extraction.ContextWindow != 32000 {
		t.Errorf("context window = %d", cfg.Extraction.ContextWindow)
	}
	// Unset keys keep their defaults.
	if cfg.Defaults.LLMProvider != "openai" {
		t.Errorf("default provider = %q", cfg.Defaults.LLMProvider)
	}
	if cfg.ServerURL() != "http://0.0.0.0:9090" {
		t.Errorf("server url = %q", cfg.ServerURL())
	}
}

func TestWriteDefault(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager on written default: %v", err)
	}
	if cm.Get().Server.Port != 8585 {
		t.Errorf("port = %d", cm.Get().Server.Port)
	}
}

package config

// Config holds samp configuration.
// Loaded from config.yaml with SAMP_ environment overrides.
type Config struct {
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Storage      StorageCfg                `mapstructure:"storage" yaml:"storage"`
	Inbox        InboxCfg                  `mapstructure:"inbox" yaml:"inbox"`
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Extraction   ExtractionCfg             `mapstructure:"extraction" yaml:"extraction"`
}

// ServerCfg configures the HTTP API server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// StorageCfg configures the embedded database and export output.
type StorageCfg struct {
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	ExportDir    string `mapstructure:"export_dir" yaml:"export_dir"`
}

// InboxCfg configures the filesystem ingestion watcher.
type InboxCfg struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	// AutoExtract queues an extraction job as soon as a file is ingested.
	AutoExtract bool `mapstructure:"auto_extract" yaml:"auto_extract"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`       // "openai", "ollama"
	Model          string `mapstructure:"model" yaml:"model"`     // Model name
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg specifies default provider selections.
type DefaultsCfg struct {
	LLMProvider string `mapstructure:"llm_provider" yaml:"llm_provider"`
}

// ExtractionCfg tunes the extraction pipeline.
type ExtractionCfg struct {
	// ContextWindow is the model context window in tokens; the chunking
	// threshold is half of it.
	ContextWindow int `mapstructure:"context_window" yaml:"context_window"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8585,
		},
		Storage: StorageCfg{
			DatabasePath: "samp.db",
			ExportDir:    "exports",
		},
		Inbox: InboxCfg{
			Dir:         "inbox",
			Enabled:     false,
			AutoExtract: true,
		},
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:           "openai",
				Model:          "gpt-4o-mini",
				APIKey:         "${OPENAI_API_KEY}",
				TimeoutSeconds: 120,
				Enabled:        true,
			},
			"ollama": {
				Type:           "ollama",
				Model:          "llama3.1",
				BaseURL:        "http://localhost:11434",
				TimeoutSeconds: 300,
				Enabled:        false,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider: "openai",
		},
		Extraction: ExtractionCfg{
			ContextWindow: 128000,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

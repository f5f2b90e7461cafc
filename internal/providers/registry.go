package providers

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"
)

// Registry holds references to LLM clients. It supports config-driven
// instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	llmClients map[string]LLMClient
	defaultLLM string
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// GetLLM returns an LLM client by name. An empty name returns the default.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultLLM
	}
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// ListLLM returns the names of all registered LLM clients.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	return names
}

// DefaultLLM returns the configured default client name.
func (r *Registry) DefaultLLM() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultLLM
}

// LLMProviderConfig configures a single LLM provider instance.
type LLMProviderConfig struct {
	Type    string // "openai" or "ollama"
	Model   string
	APIKey  string // supports ${ENV_VAR} expansion
	BaseURL string
	Timeout time.Duration
	Enabled bool
}

// RegistryConfig is the full provider configuration for Reload.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
	DefaultLLM   string
}

// Reload replaces the registered clients from configuration. Disabled or
// misconfigured providers are skipped with a warning so one bad entry does
// not take the rest down.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients := make(map[string]LLMClient, len(cfg.LLMProviders))
	for name, pc := range cfg.LLMProviders {
		if !pc.Enabled {
			continue
		}
		client, err := buildClient(pc)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("skipping LLM provider", "name", name, "error", err)
			}
			continue
		}
		clients[name] = client
		if r.logger != nil {
			r.logger.Info("registered LLM client", "name", name, "type", pc.Type, "model", pc.Model)
		}
	}

	r.llmClients = clients
	r.defaultLLM = cfg.DefaultLLM
}

func buildClient(pc LLMProviderConfig) (LLMClient, error) {
	switch pc.Type {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  ExpandEnvVars(pc.APIKey),
			Model:   pc.Model,
			Timeout: pc.Timeout,
			BaseURL: pc.BaseURL,
		})
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			Timeout: pc.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", pc.Type)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// ExpandEnvVars replaces ${ENV_VAR} placeholders with environment values.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

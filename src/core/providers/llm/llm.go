package llm

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"curlwise-server-go/src/configs"
	"curlwise-server-go/src/core/types"
)

// Config is the runtime configuration of one provider instance.
type Config struct {
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	TopP        float64
	Extra       map[string]interface{}

	// HTTPClient is used for upstream calls. nil means the client library's
	// default, which has no timeout.
	HTTPClient *http.Client
}

// ConfigFrom converts a config file entry into a provider Config.
func ConfigFrom(entry configs.LLMConfig, httpClient *http.Client) *Config {
	return &Config{
		Type:        entry.Type,
		ModelName:   entry.ModelName,
		BaseURL:     entry.BaseURL,
		APIKey:      entry.APIKey,
		Temperature: entry.Temperature,
		MaxTokens:   entry.MaxTokens,
		TopP:        entry.TopP,
		Extra:       entry.Extra,
		HTTPClient:  httpClient,
	}
}

// Provider is an upstream chat-completion model.
type Provider interface {
	types.LLMProvider
}

// BaseProvider holds the configuration shared by all providers.
type BaseProvider struct {
	config *Config
}

// NewBaseProvider wraps config for embedding in a provider.
func NewBaseProvider(config *Config) *BaseProvider {
	return &BaseProvider{
		config: config,
	}
}

// Config returns the provider configuration.
func (p *BaseProvider) Config() *Config {
	return p.config
}

// Initialize is a no-op for providers without setup.
func (p *BaseProvider) Initialize() error {
	return nil
}

// Cleanup is a no-op for providers without resources.
func (p *BaseProvider) Cleanup() error {
	return nil
}

// Factory builds a provider from its configuration.
type Factory func(config *Config) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider type available to Create. It is called from the
// init functions of the provider packages.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Create builds and initializes a provider of the given type.
func Create(name string, config *Config) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q, registered: %v", name, GetRegisteredProviders())
	}

	provider, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider %q: %w", name, err)
	}

	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing LLM provider %q: %w", name, err)
	}

	return provider, nil
}

// GetRegisteredProviders returns the registered provider types, sorted.
func GetRegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	var providers []string
	for name := range factories {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

// Package providers contains the chat completion backends used to condense
// file contents.
package providers

import (
	"errors"
	"fmt"
	"os"

	"filestoprompt/pkg/llm"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing API key")
)

// Config holds what every backend needs to reach its API.
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string // Optional endpoint override, e.g. a proxy or a test server.
	MaxRetries int    // SDK-level retries; 0 disables them.
}

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4-turbo",
	ProviderAnthropic: "claude-3-5-sonnet-latest",
	ProviderGemini:    "gemini-2.0-flash",
}

var apiKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

// Names lists the supported providers.
func Names() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// APIKeyFromEnv reads the conventional API key variable for provider.
func APIKeyFromEnv(provider string) string {
	name, ok := apiKeyEnv[provider]
	if !ok {
		return ""
	}
	return os.Getenv(name)
}

// New creates the backend named by cfg.Provider.
func New(cfg Config) (llm.Backend, error) {
	if _, ok := defaultModels[cfg.Provider]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = APIKeyFromEnv(cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %s (set %s)", ErrMissingAPIKey, cfg.Provider, apiKeyEnv[cfg.Provider])
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return NewGemini(cfg)
	}
}

// splitSystem separates system messages from the conversation turns for APIs
// that take the system prompt out of band.
func splitSystem(messages []llm.Message) (system []string, turns []llm.Message) {
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return system, turns
}

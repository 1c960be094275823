package llm

import (
	"fmt"
	"os"
)

// DefaultOllamaHost is used when neither base_url nor OLLAMA_HOST is set.
const DefaultOllamaHost = "http://localhost:11434"

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "anthropic", "openai", "google", "ollama".
// baseURL overrides the endpoint for ollama and openai (OpenAI-compatible
// gateways such as OpenRouter).
func NewProvider(providerType string, model string, baseURL string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model, baseURL), nil

	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleProvider(apiKey, model), nil

	case "ollama":
		return NewOllamaProvider(OllamaHost(baseURL), model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// OllamaHost resolves the Ollama endpoint: explicit baseURL, then
// OLLAMA_HOST, then the local default.
func OllamaHost(baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		return host
	}
	return DefaultOllamaHost
}

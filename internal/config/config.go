package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides. Nested keys use a
// double underscore, e.g. ASKBOOK_SERVER__PORT -> server.port.
const EnvPrefix = "ASKBOOK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ASKBOOK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// A subjects list in the file replaces the defaults instead of merging
	// into them index by index.
	if k.Exists("subjects") {
		cfg.Subjects = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGoogle:    true,
	ProviderOllama:    true,
}

// embeddingProviders is the subset of providers with an embeddings API.
var embeddingProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, google, ollama", c.Provider)
	}
	if c.FastModel == "" {
		return fmt.Errorf("fast_model is required")
	}
	if c.ReasoningModel == "" {
		return fmt.Errorf("reasoning_model is required")
	}

	if c.EmbeddingProvider != "" && !embeddingProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of openai, google, ollama", c.EmbeddingProvider)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding_dimensions must be positive")
	}

	switch c.PageStore {
	case PageStorePDF, PageStoreSQLite:
	default:
		return fmt.Errorf("invalid page_store %q: must be pdf or sqlite", c.PageStore)
	}

	if c.PDFDir == "" || c.IndexDir == "" {
		return fmt.Errorf("pdf_dir and index_dir are required")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.ExpansionCount < 0 {
		return fmt.Errorf("expansion_count must be non-negative")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be non-negative")
	}
	if c.LLMTimeout <= 0 || c.IndexTimeout <= 0 {
		return fmt.Errorf("llm_timeout and index_timeout must be positive")
	}

	if len(c.Subjects) == 0 {
		return fmt.Errorf("at least one subject is required")
	}
	seen := make(map[string]bool, len(c.Subjects))
	for _, s := range c.Subjects {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return fmt.Errorf("subject id must not be empty")
		}
		if strings.ContainsAny(id, `/\,`) {
			return fmt.Errorf("subject id %q must not contain path separators or commas", id)
		}
		if seen[strings.ToLower(id)] {
			return fmt.Errorf("duplicate subject id %q", id)
		}
		seen[strings.ToLower(id)] = true
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

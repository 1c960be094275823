package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
)

// PageStoreType selects the backend used to read page text at query time.
type PageStoreType string

const (
	// PageStorePDF re-reads the subject PDF on every lookup.
	PageStorePDF PageStoreType = "pdf"
	// PageStoreSQLite reads the page cache written by `askbook index`.
	PageStoreSQLite PageStoreType = "sqlite"
)

// Subject is one indexed textbook.
type Subject struct {
	ID          string `yaml:"id" koanf:"id"`
	Description string `yaml:"description" koanf:"description"`
}

// Config is the top-level askbook configuration, corresponding to askbook.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	BaseURL        string       `yaml:"base_url,omitempty" koanf:"base_url"`
	FastModel      string       `yaml:"fast_model" koanf:"fast_model"`
	ReasoningModel string       `yaml:"reasoning_model" koanf:"reasoning_model"`
	AnimationModel string       `yaml:"animation_model" koanf:"animation_model"`

	EmbeddingProvider   ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingBaseURL    string       `yaml:"embedding_base_url,omitempty" koanf:"embedding_base_url"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`

	PDFDir      string        `yaml:"pdf_dir" koanf:"pdf_dir"`
	ImagesDir   string        `yaml:"images_dir" koanf:"images_dir"`
	CaptionsDir string        `yaml:"captions_dir" koanf:"captions_dir"`
	IndexDir    string        `yaml:"index_dir" koanf:"index_dir"`
	TempDir     string        `yaml:"temp_dir" koanf:"temp_dir"`
	DataDir     string        `yaml:"data_dir" koanf:"data_dir"`
	PageStore   PageStoreType `yaml:"page_store" koanf:"page_store"`

	TopK              int           `yaml:"top_k" koanf:"top_k"`
	ExpansionCount    int           `yaml:"expansion_count" koanf:"expansion_count"`
	MaxConcurrency    int           `yaml:"max_concurrency" koanf:"max_concurrency"`
	LLMTimeout        time.Duration `yaml:"llm_timeout" koanf:"llm_timeout"`
	IndexTimeout      time.Duration `yaml:"index_timeout" koanf:"index_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	Server   ServerConfig `yaml:"server" koanf:"server"`
	Subjects []Subject    `yaml:"subjects" koanf:"subjects"`
}

// ServerConfig holds settings for `askbook web`.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// SubjectIDs returns the configured subject identifiers in order.
func (c *Config) SubjectIDs() []string {
	ids := make([]string, len(c.Subjects))
	for i, s := range c.Subjects {
		ids[i] = s.ID
	}
	return ids
}

// Subject looks up a configured subject by identifier.
func (c *Config) Subject(id string) (Subject, bool) {
	for _, s := range c.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

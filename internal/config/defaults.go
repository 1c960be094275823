package config

import "time"

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "askbook.yml"

// DefaultSubjects is the textbook set the reference library ships with.
var DefaultSubjects = []Subject{
	{ID: "AI", Description: "Artificial Intelligence - includes search algorithms, machine learning, reasoning, and problem solving."},
	{ID: "CAO", Description: "Computer Architecture and Organization - focuses on CPU, memory, assembly, and computer system design."},
	{ID: "CVLA-1", Description: "Linear Algebra - involves matrices, vector spaces, eigenvalues, and linear transformations."},
	{ID: "CVLA-2", Description: "Complex Variables - deals with complex numbers, analytic functions, residues, and contour integration."},
	{ID: "DBMS", Description: "Database Management Systems - covers relational models, SQL, normalization, and transactions."},
	{ID: "OS", Description: "Operating Systems - includes process management, memory, scheduling, file systems, and concurrency."},
}

// ModelPreset describes the models used for each pipeline role.
type ModelPreset struct {
	FastModel      string
	ReasoningModel string
	EmbeddingModel string
	Dimensions     int
}

// modelPresets maps a provider to sensible model choices.
var modelPresets = map[ProviderType]ModelPreset{
	ProviderOllama:    {FastModel: "gemma3:4b", ReasoningModel: "deepseek-r1:8b", EmbeddingModel: "all-minilm", Dimensions: 384},
	ProviderOpenAI:    {FastModel: "gpt-4o-mini", ReasoningModel: "o4-mini", EmbeddingModel: "text-embedding-3-small", Dimensions: 1536},
	ProviderAnthropic: {FastModel: "claude-haiku-4-5-20251001", ReasoningModel: "claude-sonnet-4-5-20250929", EmbeddingModel: "all-minilm", Dimensions: 384},
	ProviderGoogle:    {FastModel: "gemini-2.0-flash", ReasoningModel: "gemini-1.5-pro", EmbeddingModel: "gemini-embedding-001", Dimensions: 3072},
}

// GetPreset returns the model preset for a provider, falling back to Ollama.
func GetPreset(provider ProviderType) ModelPreset {
	if p, ok := modelPresets[provider]; ok {
		return p
	}
	return modelPresets[ProviderOllama]
}

// DefaultConfig returns a Config matching the reference local setup:
// Ollama for every model role and a 384-dimensional MiniLM encoder.
func DefaultConfig() *Config {
	preset := GetPreset(ProviderOllama)
	subjects := make([]Subject, len(DefaultSubjects))
	copy(subjects, DefaultSubjects)

	return &Config{
		Provider:            ProviderOllama,
		FastModel:           preset.FastModel,
		ReasoningModel:      preset.ReasoningModel,
		AnimationModel:      "hf.co/mombip/Llama-3.1-8B-q4_k_m-manim:latest",
		EmbeddingProvider:   ProviderOllama,
		EmbeddingModel:      preset.EmbeddingModel,
		EmbeddingDimensions: preset.Dimensions,
		PDFDir:              "data",
		ImagesDir:           "images",
		CaptionsDir:         "captions",
		IndexDir:            "index",
		TempDir:             "temp",
		DataDir:             ".askbook",
		PageStore:           PageStorePDF,
		TopK:                5,
		ExpansionCount:      3,
		MaxConcurrency:      1,
		LLMTimeout:          120 * time.Second,
		IndexTimeout:        10 * time.Second,
		Server: ServerConfig{
			Port: 8501,
		},
		Subjects: subjects,
	}
}

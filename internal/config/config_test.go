package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOllama {
		t.Errorf("expected default provider %q, got %q", ProviderOllama, cfg.Provider)
	}
	if cfg.EmbeddingDimensions != 384 {
		t.Errorf("expected 384 embedding dimensions, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.TopK != 5 {
		t.Errorf("expected default top_k 5, got %d", cfg.TopK)
	}
	if cfg.ExpansionCount != 3 {
		t.Errorf("expected default expansion_count 3, got %d", cfg.ExpansionCount)
	}
	if len(cfg.Subjects) != 6 {
		t.Errorf("expected 6 default subjects, got %d", len(cfg.Subjects))
	}
}

func TestDefaultConfigDoesNotAliasSubjects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Subjects[0].ID = "changed"
	if DefaultSubjects[0].ID != "AI" {
		t.Fatalf("DefaultSubjects mutated through DefaultConfig: %q", DefaultSubjects[0].ID)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askbook.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.FastModel = "gpt-4o-mini"
	original.TopK = 7
	original.LLMTimeout = 30 * time.Second
	original.Subjects = []Subject{
		{ID: "OS", Description: "Operating Systems"},
		{ID: "DBMS", Description: "Databases"},
	}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.FastModel != original.FastModel {
		t.Errorf("fast_model: got %q, want %q", loaded.FastModel, original.FastModel)
	}
	if loaded.TopK != 7 {
		t.Errorf("top_k: got %d, want 7", loaded.TopK)
	}
	if loaded.LLMTimeout != 30*time.Second {
		t.Errorf("llm_timeout: got %v, want 30s", loaded.LLMTimeout)
	}
	if len(loaded.Subjects) != 2 {
		t.Fatalf("subjects length: got %d, want 2", len(loaded.Subjects))
	}
	if loaded.Subjects[1].ID != "DBMS" || loaded.Subjects[1].Description != "Databases" {
		t.Errorf("subjects[1]: got %+v", loaded.Subjects[1])
	}
}

func TestLoadDurationString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askbook.yml")
	content := "llm_timeout: 45s\nindex_timeout: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLMTimeout != 45*time.Second {
		t.Errorf("llm_timeout: got %v", cfg.LLMTimeout)
	}
	if cfg.IndexTimeout != 2*time.Second {
		t.Errorf("index_timeout: got %v", cfg.IndexTimeout)
	}
	// Keys not present in the file keep their defaults.
	if len(cfg.Subjects) != len(DefaultSubjects) {
		t.Errorf("subjects: got %d, want defaults", len(cfg.Subjects))
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "askbook.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("ASKBOOK_PROVIDER", "openai")
	t.Setenv("ASKBOOK_SERVER__PORT", "9000")
	t.Setenv("ASKBOOK_TOP_K", "3")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("nested env override failed: got %d, want 9000", loaded.Server.Port)
	}
	if loaded.TopK != 3 {
		t.Errorf("top_k override failed: got %d, want 3", loaded.TopK)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty fast model", func(c *Config) { c.FastModel = "" }},
		{"empty reasoning model", func(c *Config) { c.ReasoningModel = "" }},
		{"anthropic embeddings", func(c *Config) { c.EmbeddingProvider = ProviderAnthropic }},
		{"zero dimensions", func(c *Config) { c.EmbeddingDimensions = 0 }},
		{"bad page store", func(c *Config) { c.PageStore = "redis" }},
		{"zero top_k", func(c *Config) { c.TopK = 0 }},
		{"negative expansion", func(c *Config) { c.ExpansionCount = -1 }},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }},
		{"zero llm timeout", func(c *Config) { c.LLMTimeout = 0 }},
		{"no subjects", func(c *Config) { c.Subjects = nil }},
		{"empty subject id", func(c *Config) { c.Subjects = []Subject{{ID: " "}} }},
		{"subject with slash", func(c *Config) { c.Subjects = []Subject{{ID: "a/b"}} }},
		{"duplicate subject", func(c *Config) { c.Subjects = []Subject{{ID: "OS"}, {ID: "os"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(ProviderOpenAI)
	if p.EmbeddingModel != "text-embedding-3-small" || p.Dimensions != 1536 {
		t.Errorf("unexpected openai preset: %+v", p)
	}

	// Unknown provider falls back to the local preset.
	p = GetPreset("unknown")
	if p.FastModel != "gemma3:4b" {
		t.Errorf("expected fallback to ollama preset, got %q", p.FastModel)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestSubjectLookup(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := cfg.Subject("OS"); !ok {
		t.Error("expected OS subject")
	}
	if _, ok := cfg.Subject("BIO"); ok {
		t.Error("unexpected BIO subject")
	}
	ids := cfg.SubjectIDs()
	if ids[0] != "AI" || ids[len(ids)-1] != "OS" {
		t.Errorf("unexpected ids: %v", ids)
	}
}

func TestDetectSubjects(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"OS.pdf", "Biology.pdf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := detectSubjects(dir)
	if len(got) != 2 {
		t.Fatalf("expected 2 subjects, got %d: %+v", len(got), got)
	}
	for _, s := range got {
		if s.ID == "OS" && s.Description == "OS" {
			t.Error("expected the default description for OS")
		}
	}
}

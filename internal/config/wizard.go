package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
)

// detectSubjects lists the PDFs in dir and returns one subject per file,
// named after the file stem. Descriptions are taken from the default set
// when the stem matches a known subject.
func detectSubjects(dir string) []Subject {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.pdf"))
	var subjects []Subject
	for _, m := range matches {
		id := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
		s := Subject{ID: id, Description: id}
		for _, d := range DefaultSubjects {
			if strings.EqualFold(d.ID, id) {
				s.Description = d.Description
			}
		}
		subjects = append(subjects, s)
	}
	return subjects
}

// RunWizard runs an interactive configuration wizard and saves the
// result to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to askbook! Let's configure your library.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"ollama", "openai", "anthropic", "google"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	preset := GetPreset(cfg.Provider)
	cfg.FastModel = preset.FastModel
	cfg.ReasoningModel = preset.ReasoningModel
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	embedPreset := GetPreset(cfg.EmbeddingProvider)
	cfg.EmbeddingModel = embedPreset.EmbeddingModel
	cfg.EmbeddingDimensions = embedPreset.Dimensions

	// 2. Models.
	fastPrompt := promptui.Prompt{
		Label:   "Fast model (classification, paraphrasing)",
		Default: cfg.FastModel,
	}
	if cfg.FastModel, err = fastPrompt.Run(); err != nil {
		return nil, fmt.Errorf("fast model: %w", err)
	}

	reasoningPrompt := promptui.Prompt{
		Label:   "Reasoning model (final answers)",
		Default: cfg.ReasoningModel,
	}
	if cfg.ReasoningModel, err = reasoningPrompt.Run(); err != nil {
		return nil, fmt.Errorf("reasoning model: %w", err)
	}

	// 3. PDF directory.
	pdfPrompt := promptui.Prompt{
		Label:   "Directory containing one PDF per subject",
		Default: cfg.PDFDir,
	}
	if cfg.PDFDir, err = pdfPrompt.Run(); err != nil {
		return nil, fmt.Errorf("pdf dir: %w", err)
	}

	if detected := detectSubjects(cfg.PDFDir); len(detected) > 0 {
		fmt.Printf("Detected %d subject(s): %s\n", len(detected), strings.Join(subjectIDs(detected), ", "))
		usePrompt := promptui.Select{
			Label: "Use the detected subjects?",
			Items: []string{"yes", "no, keep the default list"},
		}
		idx, _, err := usePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("subject selection: %w", err)
		}
		if idx == 0 {
			cfg.Subjects = detected
		}
	}

	// Check for API key.
	envVar := APIKeyEnvVar(cfg.Provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment (or .env) before running askbook.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. Anthropic has no embeddings API, so it pairs with Ollama.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderAnthropic {
		return ProviderOllama
	}
	return p
}

func subjectIDs(subjects []Subject) []string {
	ids := make([]string, len(subjects))
	for i, s := range subjects {
		ids[i] = s.ID
	}
	return ids
}

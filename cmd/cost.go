package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/indexer"
	"github.com/ziadkadry99/askbook/internal/llm"
	"github.com/ziadkadry99/askbook/internal/pages"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Estimate the embedding cost of indexing",
	Long:  `Performs a dry run that extracts every subject PDF, estimates the tokens sent to the embedding model and calculates the expected API cost without making any calls.`,
	RunE:  runCost,
}

func init() {
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sources, missing, err := indexer.Discover(cfg.PDFDir, cfg.Subjects, logger)
	if err != nil {
		return err
	}
	for _, subject := range missing {
		fmt.Fprintf(os.Stderr, "Warning: no PDF found for subject %s\n", subject)
	}

	var totalPages, totalTokens int
	fmt.Printf("%-10s %7s %10s\n", "SUBJECT", "PAGES", "TOKENS")
	for _, src := range sources {
		texts, err := pages.ExtractPages(ctx, src.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", src.RelPath, err)
			continue
		}
		tokens := 0
		for _, t := range texts {
			tokens += llm.EstimateTokens(t)
		}
		totalPages += len(texts)
		totalTokens += tokens
		fmt.Printf("%-10s %7d %10d\n", src.Subject, len(texts), tokens)
	}

	fmt.Printf("%-10s %7d %10d\n\n", "TOTAL", totalPages, totalTokens)
	cost := llm.EstimateCost(cfg.EmbeddingModel, totalTokens, 0)
	if cost == 0 {
		fmt.Printf("Embedding model %s has no listed price (local models are free).\n", cfg.EmbeddingModel)
		return nil
	}
	fmt.Printf("Estimated embedding cost with %s: $%.4f\n", cfg.EmbeddingModel, cost)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/indexer"
	"github.com/ziadkadry99/askbook/internal/pages"
	"github.com/ziadkadry99/askbook/internal/progress"
	"github.com/ziadkadry99/askbook/internal/vectordb"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the page index of every subject PDF",
	Long: `Finds one PDF per configured subject under pdf_dir, extracts the text of
every page, embeds it and writes a per-subject vector index to index_dir.
Page text is also cached in the askbook database. Subjects whose PDF has
not changed since the last build are skipped unless --force is given.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("force", false, "rebuild every subject even if unchanged")
	indexCmd.Flags().Int("concurrency", 0, "subjects indexed in parallel (overrides config)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.MaxConcurrency
	}

	sources, missing, err := indexer.Discover(cfg.PDFDir, cfg.Subjects, logger)
	if err != nil {
		return err
	}
	for _, subject := range missing {
		fmt.Fprintf(os.Stderr, "Warning: no PDF found for subject %s in %s\n", subject, cfg.PDFDir)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no subject PDFs found in %s", cfg.PDFDir)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d subject PDF(s) in %s\n", len(sources), cfg.PDFDir)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	index := vectordb.NewChromemIndex(cfg.IndexDir, embedder)
	pipeline := indexer.NewPipeline(index, pages.NewSQLiteStore(database), cfg.IndexDir, concurrency, logger)

	reporter := progress.NewReporter("Indexing")
	reporter.Start(len(sources))
	pipeline.SetProgressFunc(func(processed int, total int, current string) {
		reporter.Update(processed, current)
	})

	result, err := pipeline.Run(ctx, sources, force)
	reporter.Finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("Indexed %d subject(s), skipped %d unchanged, %d failed in %s\n",
		result.Built, result.Skipped, result.Failed, result.Duration.Round(time.Millisecond))
	for _, sr := range result.Subjects {
		if sr.Err == nil && !sr.Skipped {
			fmt.Printf("  %-10s %5d pages\n", sr.Subject, sr.Pages)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\nErrors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		return fmt.Errorf("%d subject(s) failed to index", result.Failed)
	}
	return nil
}

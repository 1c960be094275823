package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed textbooks",
	Long: `Routes the question to the relevant subjects, retrieves the nearest pages
of each and answers from them. The answer cites the pages it used and
lists any figures extracted from those pages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full answer as JSON")
	askCmd.Flags().Bool("reasoning", false, "include the model's reasoning")
	askCmd.Flags().Bool("animate", false, "render an explanatory animation after answering")
	askCmd.Flags().Bool("no-history", false, "do not record the question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := strings.Join(args, " ")

	jsonOutput, _ := cmd.Flags().GetBool("json")
	withReasoning, _ := cmd.Flags().GetBool("reasoning")
	animate, _ := cmd.Flags().GetBool("animate")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var observe rag.Observer
	if verbose {
		observe = func(ev rag.Event) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Stage, ev.Message)
		}
	}

	start := time.Now()
	ans, askErr := a.pipeline.Ask(ctx, query, observe)
	if !noHistory {
		if _, err := a.history.Record(ctx, query, ans, askErr, time.Since(start)); err != nil {
			logger.Warn("recording question failed", "error", err)
		}
	}
	if askErr != nil {
		return indexHint(askErr)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ans); err != nil {
			return err
		}
	} else {
		fmt.Print(rag.FormatText(ans, withReasoning))
	}

	if verbose {
		u := a.meter.Usage()
		fmt.Fprintf(os.Stderr, "\n%d model call(s), ~%d input / ~%d output tokens, est. $%.4f\n",
			u.Calls, u.InputTokens, u.OutputTokens, u.CostUSD)
	}

	if animate && ans.Status == rag.StatusAnswered {
		return renderAnimation(ctx, a, query, figurePaths(ans))
	}
	return nil
}

func renderAnimation(ctx context.Context, a *app, query string, images []string) error {
	gen, err := a.animator()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Generating animation (%d figure(s) as reference)...\n", len(images))
	res, err := gen.Generate(ctx, query, images)
	if res != nil && verbose {
		fmt.Fprintf(os.Stderr, "\nScene plan:\n%s\n", res.Plan)
	}
	if err != nil {
		return fmt.Errorf("animation: %w", err)
	}
	fmt.Printf("Animation: %s\n", res.VideoPath)
	return nil
}

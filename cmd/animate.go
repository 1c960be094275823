package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/rag"
)

var animateCmd = &cobra.Command{
	Use:   "animate [question]",
	Short: "Render a Manim animation explaining a question",
	Long: `Answers the question to find the figures on the cited pages, then plans
a scene from the question and those figures, writes Manim code for it
and renders it with the manim command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		query := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var images []string
		ans, err := a.pipeline.Ask(ctx, query, nil)
		switch {
		case err != nil:
			logger.Warn("no figures for animation", "error", err)
		case ans.Status == rag.StatusAnswered:
			images = figurePaths(ans)
		}
		return renderAnimation(ctx, a, query, images)
	},
}

func init() {
	rootCmd.AddCommand(animateCmd)
}

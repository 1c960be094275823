package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/rag"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <subject> <pages>",
	Short: "Summarize pages of a subject",
	Long: `Summarizes the given pages of one subject. Pages are page numbers
(1-based PDF pages) as cited in answers, e.g. "12,47-49".`,
	Example: `  askbook summarize OS 12,47-49`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		subject, ok := cfg.Subject(args[0])
		if !ok {
			return fmt.Errorf("unknown subject %q", args[0])
		}
		set, err := rag.ParsePageList(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.summarizer().Summarize(context.Background(), subject.ID, set)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

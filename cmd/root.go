package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/config"
)

var (
	cfgFile string
	verbose bool
	logger  = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "askbook",
	Short: "Ask questions of a library of textbooks",
	Long: `askbook indexes one PDF per subject and answers questions about them.
A question is routed to the relevant subjects, paraphrased, matched
against each subject's page index, and answered from the retrieved
pages with page citations and any figures on those pages.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal; keys may come from the environment.
		_ = godotenv.Load()
		logger = newLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFileName, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger logs to stderr, at debug level when verbose and warnings only
// otherwise, so stdout stays clean for answers and the MCP transport.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

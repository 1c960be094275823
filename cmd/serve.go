package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/askbook/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
textbook library to AI agents: ask, search_pages, get_page,
list_subjects and summarize_pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		indexed := 0
		for _, s := range cfg.Subjects {
			if a.index.Exists(s.ID) {
				indexed++
			}
		}
		fmt.Fprintf(os.Stderr, "askbook MCP server started on stdio (subjects=%d, indexed=%d)\n", len(cfg.Subjects), indexed)
		if indexed == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no subject is indexed yet. Run `askbook index` first.\n")
		}

		srv := mcpserver.NewServer(mcpserver.Deps{
			Pipeline:   a.pipeline,
			Index:      a.index,
			Embedder:   a.embedder,
			Pages:      a.pages,
			Summarizer: a.summarizer(),
			History:    a.history,
			Subjects:   cfg.Subjects,
			TopK:       cfg.TopK,
			Timeout:    cfg.IndexTimeout,
			Logger:     logger,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/vectordb"
)

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the configured subjects and their index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		index := vectordb.NewChromemIndex(cfg.IndexDir, nil)

		for _, s := range cfg.Subjects {
			status := "not indexed"
			m, err := index.Manifest(s.ID)
			switch {
			case err == nil:
				status = fmt.Sprintf("%d pages, %s, built %s", m.Pages, m.Embedder, m.BuiltAt.Format("2006-01-02 15:04"))
			case !errors.Is(err, vectordb.ErrIndexNotFound):
				status = fmt.Sprintf("unreadable: %v", err)
			}
			fmt.Printf("%-10s %s\n", s.ID, status)
			if verbose && s.Description != "" {
				fmt.Printf("           %s\n", s.Description)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(subjectsCmd)
}

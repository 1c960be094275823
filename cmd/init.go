package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize askbook configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose providers, models and the PDF directory, and writes askbook.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		provider, err := buildProvider(cfg, cfg.FastModel)
		if err != nil {
			return err
		}
		lister, ok := provider.(llm.ModelLister)
		if !ok {
			return fmt.Errorf("provider %s cannot list models", cfg.Provider)
		}
		models, err := lister.ListModels(context.Background())
		if err != nil {
			return fmt.Errorf("listing models: %w", err)
		}

		configured := map[string]string{
			cfg.FastModel:      "fast",
			cfg.ReasoningModel: "reasoning",
			cfg.AnimationModel: "animation",
		}
		for _, m := range models {
			if role, ok := configured[m]; ok {
				fmt.Printf("%s  (%s)\n", m, role)
				continue
			}
			fmt.Println(m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

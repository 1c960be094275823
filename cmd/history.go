package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/history"
	"github.com/ziadkadry99/askbook/internal/rag"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously asked questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		entries, err := store.List(context.Background(), history.Filter{
			Subject: subject,
			Status:  rag.Status(status),
			Search:  search,
			Limit:   limit,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No questions recorded.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s  %-10s %s\n", e.ID[:8], e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Status, e.Query)
			if verbose {
				fmt.Printf("          id=%s subjects=%v took=%s\n", e.ID, e.Subjects, e.Duration.Round(time.Millisecond))
			}
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded question and its answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		e, err := store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		}

		fmt.Printf("Asked %s: %s\n\n", e.CreatedAt.Local().Format(time.RFC1123), e.Query)
		switch {
		case e.Answer != nil:
			fmt.Print(rag.FormatText(e.Answer, false))
		case e.Error != "":
			fmt.Printf("Failed: %s\n", e.Error)
		}
		return nil
	},
}

// openHistory opens the question log without wiring the full pipeline.
func openHistory() (*history.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

func init() {
	historyCmd.Flags().String("subject", "", "only questions routed to this subject")
	historyCmd.Flags().String("status", "", "only questions with this status (answered, no_subject, failed)")
	historyCmd.Flags().String("search", "", "only questions containing this text")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyShowCmd.Flags().Bool("json", false, "output the entry as JSON")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

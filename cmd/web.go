package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/askbook/internal/server"
)

var webPort int

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the web UI and JSON API",
	Long: `Starts an HTTP server with a browser UI for asking questions, a JSON API,
a websocket that streams pipeline stages, the figure images and the
question history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = webPort
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		deps := server.Deps{
			Pipeline: a.pipeline,
			History:  a.history,
			Figures:  a.figures,
			Index:    a.index,
			Subjects: cfg.Subjects,
			Logger:   logger,
		}
		if gen, err := a.animator(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: animation disabled: %v\n", err)
		} else {
			deps.Animator = gen
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, deps)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "askbook %s listening on http://localhost:%d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Subjects: %d, index: %s\n", len(cfg.Subjects), cfg.IndexDir)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.db.Path())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	webCmd.Flags().IntVar(&webPort, "port", 8501, "port to listen on (overrides config)")
	rootCmd.AddCommand(webCmd)
}

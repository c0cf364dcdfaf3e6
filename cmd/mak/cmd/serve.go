package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mak/internal/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MAK API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := api.NewServer(makApp)

		done := make(chan error, 1)
		go func() { done <- server.Start(makApp.Config.Port) }()

		log.Info("MAK server running", "url", fmt.Sprintf("http://localhost:%d", makApp.Config.Port))
		log.Info("Press Ctrl+C to stop")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
			log.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(ctx)
		case err := <-done:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}
	},
}

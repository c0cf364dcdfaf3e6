package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mak/internal/app"
	"github.com/entrepeneur4lyf/mak/internal/config"
	"github.com/spf13/cobra"
)

var (
	port    int
	dataDir string
	model   string
)

// Global app instance shared by subcommands.
var makApp *app.App

var rootCmd = &cobra.Command{
	Use:   "mak",
	Short: "MAK chat assistant for transcription and translation",
	Long: "MAK serves a browser-based chat client for a Gemini-backed assistant\n" +
		"supporting text, image, and audio input with streamed replies.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if model != "" {
			cfg.Model = model
		}

		makApp, err = app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		if cfg.APIKey == "" {
			log.Warn("GEMINI_API_KEY is not set; conversations will fail to start")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 8420, "HTTP port to listen on")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for chat history and preferences")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Gemini model id")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

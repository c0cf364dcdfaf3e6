package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mak/internal/chat"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a chat session as a plain-text transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, ok := makApp.Store.Get(args[0])
		if !ok {
			return fmt.Errorf("session %s not found", args[0])
		}

		out := exportOut
		if out == "" {
			out = chat.ExportFilename(session.Title) + ".txt"
		}
		if err := os.WriteFile(out, []byte(chat.ExportTranscript(session)), 0644); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}

		abs, _ := filepath.Abs(out)
		log.Info("Transcript exported", "file", abs, "messages", len(session.Messages))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: derived from session title)")
}

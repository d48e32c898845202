// Package cmd provides the easel command line interface.
//
// Commands:
//   - serve: the web studio — HTTP server with the SSE generation API
//     and the embedded browser UI
//   - ask: one-shot generation from a single prompt, artifact written
//     to a file
//   - version: build metadata
//
// All commands handle SIGINT/SIGTERM via context cancellation.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/log"
)

var debugLog bool

var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "easel - describe it, see it",
	Long: `easel turns natural-language prompts into small HTML/CSS/JS
creations and shows them live in a sandboxed preview.

Run "easel serve" and open the printed address in a browser, or use
"easel ask" for a one-shot generation without the UI.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger honoring the --debug flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugLog {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
}

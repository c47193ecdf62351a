// Package cmd provides the aiva CLI commands.
//
// Commands:
//   - serve: HTTP API server streaming chat responses
//   - migrate: apply database migrations and exit
//   - version: build information
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariephoon/aiva/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "aiva",
	Short: "AIVA - asisten virtual untuk data klaim BPJS Kesehatan",
	Long: `AIVA is the backend for the medical-claims chat assistant. It streams
model responses over the Vercel AI data-stream protocol and persists chat
transcripts in PostgreSQL.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG in the environment lowers
// the level; AIVA_LOG_JSON switches to JSON output for log collectors.
func newLogger() *slog.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	if os.Getenv("AIVA_LOG_JSON") != "" {
		cfg.JSON = true
	}
	return log.New(cfg)
}

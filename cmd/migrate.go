package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariephoon/aiva/internal/config"
	"github.com/ariephoon/aiva/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long: `Applies all pending schema migrations to the configured PostgreSQL
database. The serve command also migrates on startup; this command exists
for deploy pipelines that migrate before rolling instances.`,
	RunE: func(*cobra.Command, []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger()
	if err := database.Migrate(cfg.PostgresURL(), logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("migrations applied")
	return nil
}

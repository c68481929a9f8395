// Package cli implements the outreach command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/homelistingai/outreach/internal/config"
	"github.com/homelistingai/outreach/internal/db"
	"github.com/homelistingai/outreach/internal/logging"
	"github.com/homelistingai/outreach/internal/sequences"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "outreachd",
	Short: "Outbound communication automation engine",
	Long: "Outreachd runs drip sequences for leads and bulk campaign\n" +
		"enrollment with batching, throttling and a deliverability safety filter.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Setup(cfg.Log.Level, cfg.Log.Console)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// openDatabase opens the configured SQLite database and applies
// migrations.
func openDatabase(ctx context.Context) (*db.DB, error) {
	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DB.Path, err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}

// loadDefinitions loads sequence definitions from the configured
// directory, or the default search paths plus builtins when none is set.
func loadDefinitions() ([]*sequences.Definition, error) {
	if cfg.Sequences.Dir != "" {
		return sequences.LoadDefinitionsFromDir(cfg.Sequences.Dir)
	}
	return sequences.LoadDefinitionsFromSearchPaths(".")
}

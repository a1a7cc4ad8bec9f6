package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/huishoudboek-dev/huishoudboek/internal/buildinfo"
	"github.com/huishoudboek-dev/huishoudboek/internal/config"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "huishoudboek",
		Short:   "Guided household budgeting",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "huishoudboek.yaml", "path to configuration file")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newSweepCommand(&configPath))
	rootCmd.AddCommand(newCloseCommand(&configPath))
	rootCmd.AddCommand(newReopenCommand(&configPath))
	rootCmd.AddCommand(newArchiveCommand(&configPath))
	rootCmd.AddCommand(newCutoffCommand(&configPath))
	rootCmd.AddCommand(newStandCommand(&configPath))
	rootCmd.AddCommand(newProjectCommand(&configPath))

	return rootCmd
}

// openStore loads the config and opens the SQLite store it points at.
func openStore(configPath string) (*config.Config, *store.SQLite, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func parseOwner(arg string) (uuid.UUID, error) {
	owner, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid owner id %q: %w", arg, err)
	}
	return owner, nil
}

func parseDate(arg string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", arg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want yyyy-mm-dd): %w", arg, err)
	}
	return d, nil
}

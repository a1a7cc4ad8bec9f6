package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/huishoudboek-dev/huishoudboek/internal/config"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new huishoudboek administration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir)
		},
	}
	return cmd
}

func runInit(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "huishoudboek.db")
	cfg.Sweep.DataRoot = dir
	if err := config.Save(filepath.Join(dir, "huishoudboek.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	db, err := store.OpenSQLite(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Initialized huishoudboek administration at %s\n", dir)
	return nil
}

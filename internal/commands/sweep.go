package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/huishoudboek-dev/huishoudboek/internal/sweep"
)

func newSweepCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the nightly sweep: advance periods and reconcile every owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			sweeper := sweep.NewSweeper(db, cfg.Budget.CutoffDay, cfg.Sweep.Parallelism)
			results, err := sweeper.Run()
			if err != nil {
				return err
			}
			if err := sweep.Log(cfg.Sweep.DataRoot, time.Now(), results); err != nil {
				return fmt.Errorf("writing sweep log: %w", err)
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Printf("owner %s: FAILED: %v\n", r.Owner, r.Err)
					continue
				}
				fmt.Printf("owner %s: %s\n", r.Owner, r.Message)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d owners failed", failed, len(results))
			}
			return nil
		},
	}
}

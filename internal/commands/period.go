package commands

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/huishoudboek-dev/huishoudboek/internal/closing"
	"github.com/huishoudboek-dev/huishoudboek/internal/period"
)

func newCloseCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "close <owner> <period-id>",
		Short: "Close an open period, persisting its balance snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, periodID, err := parseOwnerPeriod(args)
			if err != nil {
				return err
			}
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := closing.NewCoordinator(db).Close(owner, periodID, nil); err != nil {
				return err
			}
			fmt.Printf("Closed period %s\n", periodID)
			return nil
		},
	}
}

func newReopenCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <owner> <period-id>",
		Short: "Reopen the most recently closed period",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, periodID, err := parseOwnerPeriod(args)
			if err != nil {
				return err
			}
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := closing.NewCoordinator(db).Reopen(owner, periodID); err != nil {
				return err
			}
			fmt.Printf("Reopened period %s\n", periodID)
			return nil
		},
	}
}

func newArchiveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <owner> <period-id>",
		Short: "Archive a closed period and purge its ledger entries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, periodID, err := parseOwnerPeriod(args)
			if err != nil {
				return err
			}
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := closing.NewCoordinator(db).Archive(owner, periodID); err != nil {
				return err
			}
			fmt.Printf("Archived period %s\n", periodID)
			return nil
		},
	}
}

func newCutoffCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cutoff <owner> <day>",
		Short: "Change the cutoff day, reshaping all not-yet-closed periods",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			day, err := strconv.Atoi(args[1])
			if err != nil || day < 1 || day > 31 {
				return fmt.Errorf("invalid cutoff day %q (want 1..31)", args[1])
			}
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := period.NewManager(db).ChangeCutoffDay(owner, day); err != nil {
				return err
			}
			fmt.Printf("Cutoff day for %s changed to %d\n", owner, day)
			return nil
		},
	}
}

func parseOwnerPeriod(args []string) (uuid.UUID, uuid.UUID, error) {
	owner, err := parseOwner(args[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	periodID, err := uuid.Parse(args[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid period id %q: %w", args[1], err)
	}
	return owner, periodID, nil
}

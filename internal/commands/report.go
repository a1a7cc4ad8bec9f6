package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huishoudboek-dev/huishoudboek/internal/cashflow"
	"github.com/huishoudboek-dev/huishoudboek/internal/period"
	"github.com/huishoudboek-dev/huishoudboek/internal/stand"
)

func newStandCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stand <owner> <date>",
		Short: "Show the per-account budget variance at a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			asOf, err := parseDate(args[1])
			if err != nil {
				return err
			}
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := stand.NewService(db).At(owner, asOf)
			if err != nil {
				return err
			}

			fmt.Printf("Stand %s (period %s..%s)\n", report.AsOf.Format("2006-01-02"),
				report.Period.Start.Format("2006-01-02"), report.Period.End.Format("2006-01-02"))
			for _, line := range report.Lines {
				fmt.Printf("%-30s budget %10s due %10s paid %10s arrears %10s\n",
					line.Account.Name,
					line.MonthlyAmount.StringFixed(2),
					line.Due.StringFixed(2),
					line.Paid.StringFixed(2),
					line.Variance.Arrears.StringFixed(2))
			}
			return nil
		},
	}
}

func newProjectCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "project <owner> <date>",
		Short: "Project day-by-day cashflow for the period covering a date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			date, err := parseDate(args[1])
			if err != nil {
				return err
			}
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := period.NewManager(db).PeriodFor(owner, date)
			if err != nil {
				return err
			}
			projection, err := cashflow.NewProjector(db).Project(cashflow.Params{Owner: owner, Period: p})
			if err != nil {
				return err
			}

			for _, day := range projection.Days {
				saldo := "-"
				if day.Saldo != nil {
					saldo = day.Saldo.StringFixed(2)
				}
				fmt.Printf("%s in %10s out %10s saldo %10s prognose %10s\n",
					day.Date.Format("2006-01-02"),
					day.Income.StringFixed(2), day.Expenses.StringFixed(2),
					saldo, day.Prognose.StringFixed(2))
			}
			fmt.Printf("budget horizon: %s\n", projection.BudgetHorizon.Format("2006-01-02"))
			fmt.Printf("reservation horizon: %s\n", projection.ReservationHorizon.Format("2006-01-02"))
			return nil
		},
	}
}

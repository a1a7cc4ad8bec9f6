// Package rollforward derives period opening balances from the last closed
// period's snapshots, including across stretches of periods that were never
// individually closed or persisted.
package rollforward

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huishoudboek-dev/huishoudboek/internal/budget"
	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// PeriodNotClosedError signals a closing-snapshot request for a period that
// is not CLOSED or ARCHIVED.
type PeriodNotClosedError struct {
	Period uuid.UUID
	Status model.PeriodStatus
}

func (e PeriodNotClosedError) Error() string {
	return fmt.Sprintf("period %s is %s, not closed", e.Period, e.Status)
}

// NoClosedPeriodError signals that an owner has no closed period to roll
// forward from.
type NoClosedPeriodError struct {
	Owner uuid.UUID
}

func (e NoClosedPeriodError) Error() string {
	return fmt.Sprintf("owner %s has no closed period", e.Owner)
}

// Engine computes opening balances.
type Engine struct {
	periods   store.PeriodStore
	snapshots store.SnapshotStore
	ledger    store.LedgerStore
	accounts  store.AccountStore
}

// NewEngine creates an Engine over the given collaborators.
func NewEngine(periods store.PeriodStore, snapshots store.SnapshotStore, ledger store.LedgerStore, accounts store.AccountStore) *Engine {
	return &Engine{periods: periods, snapshots: snapshots, ledger: ledger, accounts: accounts}
}

// ClosingSnapshot returns, per account, what the next period inherits from a
// CLOSED or ARCHIVED period.
func (e *Engine) ClosingSnapshot(p model.Period) (map[uuid.UUID]model.Balances, error) {
	if !p.Closed() {
		return nil, PeriodNotClosedError{Period: p.ID, Status: p.Status}
	}
	snaps, err := e.snapshots.SnapshotsFor(p.ID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	out := make(map[uuid.UUID]model.Balances, len(snaps))
	for _, s := range snaps {
		out[s.Account] = s.Closing()
	}
	return out, nil
}

// Base returns the owner's most recent CLOSED/ARCHIVED period starting
// before the target period.
func (e *Engine) Base(target model.Period) (model.Period, error) {
	periods, err := e.periods.PeriodsFor(target.Owner)
	if err != nil {
		return model.Period{}, fmt.Errorf("loading periods: %w", err)
	}
	var base *model.Period
	for i := range periods {
		p := periods[i]
		if p.Closed() && p.Start.Before(target.Start) {
			base = &p
		}
	}
	if base == nil {
		return model.Period{}, NoClosedPeriodError{Owner: target.Owner}
	}
	return *base, nil
}

// OpeningBalancesFor computes the per-account opening balances of the target
// period. When the target directly follows the base period the base's closing
// snapshot is the answer; otherwise the ledger mutations of every day between
// the two are folded on top, so the opening of period N is answerable even
// when periods N-1 and earlier were never closed.
func (e *Engine) OpeningBalancesFor(target model.Period) (map[uuid.UUID]model.Balances, error) {
	base, err := e.Base(target)
	if err != nil {
		return nil, err
	}
	opening, err := e.ClosingSnapshot(base)
	if err != nil {
		return nil, err
	}
	if base.End.AddDate(0, 0, 1).Equal(target.Start) {
		return opening, nil
	}

	gapFrom := base.End.AddDate(0, 0, 1)
	gapTo := target.Start.AddDate(0, 0, -1)
	entries, err := e.ledger.EntriesBetween(target.Owner, gapFrom, gapTo)
	if err != nil {
		return nil, fmt.Errorf("loading gap entries: %w", err)
	}

	mutations := make(map[uuid.UUID]model.Mutation)
	for _, entry := range entries {
		entry.Apply(mutations)
	}
	for account, mut := range mutations {
		b := opening[account]
		b.Balance = b.Balance.Add(mut.Payment)
		b.Reserved = b.Reserved.Add(mut.Reservation).Sub(mut.Payment)
		b.Withdrawn = b.Withdrawn.Add(mut.Withdrawal).Add(mut.Payment)
		opening[account] = b
	}

	arrears, err := e.gapArrears(target.Owner, gapFrom, gapTo, mutations)
	if err != nil {
		return nil, err
	}
	for account, delta := range arrears {
		b := opening[account]
		b.Arrears = b.Arrears.Add(delta)
		opening[account] = b
	}

	return opening, nil
}

// gapArrears accrues, for each fixed-budget account, the installments that
// fell due on days inside the gap minus what was actually paid to the
// account there, floored at zero.
func (e *Engine) gapArrears(owner uuid.UUID, from, to time.Time, mutations map[uuid.UUID]model.Mutation) (map[uuid.UUID]decimal.Decimal, error) {
	accounts, err := e.accounts.AccountsFor(owner)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	groups, err := e.accounts.GroupsFor(owner)
	if err != nil {
		return nil, fmt.Errorf("loading account groups: %w", err)
	}
	byGroup := make(map[uuid.UUID]model.AccountGroup, len(groups))
	for _, g := range groups {
		byGroup[g.ID] = g
	}

	out := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range accounts {
		if byGroup[a.GroupID].BudgetType != model.BudgetFixed || a.Rule.DueDay == nil {
			continue
		}
		due := decimal.Zero
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if !a.ExpectedIn(d.Month()) {
				continue
			}
			if d.Day() == dueDayIn(*a.Rule.DueDay, d) {
				due = due.Add(budget.MonthlyAmount(a.Rule, daysInMonth(d)))
			}
		}
		if due.IsZero() {
			continue
		}
		paid := mutations[a.ID].Payment.Abs()
		if delta := due.Sub(paid); delta.IsPositive() {
			out[a.ID] = delta
		}
	}
	return out, nil
}

func daysInMonth(d time.Time) int {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// dueDayIn clamps a due day to the length of d's month.
func dueDayIn(dueDay int, d time.Time) int {
	if last := daysInMonth(d); dueDay > last {
		return last
	}
	return dueDay
}

// Package closing orchestrates the period lifecycle transitions: closing a
// period into balance snapshots, reopening the most recently closed one, and
// archiving with ledger purge.
package closing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huishoudboek-dev/huishoudboek/internal/budget"
	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/rollforward"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// PeriodNotOpenError signals a close request for a period that is not OPEN.
type PeriodNotOpenError struct {
	Period uuid.UUID
	Status model.PeriodStatus
}

func (e PeriodNotOpenError) Error() string {
	return fmt.Sprintf("period %s is %s, not open", e.Period, e.Status)
}

// PreviousPeriodOpenError signals a close request while the preceding period
// is still open. Closing happens oldest first.
type PreviousPeriodOpenError struct {
	Period   uuid.UUID
	Previous uuid.UUID
}

func (e PreviousPeriodOpenError) Error() string {
	return fmt.Sprintf("cannot close period %s: previous period %s is not closed", e.Period, e.Previous)
}

// NotLastClosedError signals a reopen request for anything but the owner's
// most recently closed period. Closing is a stack, not a set.
type NotLastClosedError struct {
	Period uuid.UUID
}

func (e NotLastClosedError) Error() string {
	return fmt.Sprintf("period %s is not the most recently closed period", e.Period)
}

// AccountNotFoundError signals a reference to an account the owner does not
// have.
type AccountNotFoundError struct {
	Owner   uuid.UUID
	Account uuid.UUID
}

func (e AccountNotFoundError) Error() string {
	return fmt.Sprintf("owner %s has no account %s", e.Owner, e.Account)
}

// Coordinator drives period close, reopen, archive and retroactive
// amendment.
type Coordinator struct {
	store  store.Store
	engine *rollforward.Engine
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(s store.Store) *Coordinator {
	return &Coordinator{
		store:  s,
		engine: rollforward.NewEngine(s, s, s, s),
	}
}

func (c *Coordinator) find(owner, periodID uuid.UUID) (model.Period, []model.Period, error) {
	periods, err := c.store.PeriodsFor(owner)
	if err != nil {
		return model.Period{}, nil, fmt.Errorf("loading periods: %w", err)
	}
	for _, p := range periods {
		if p.ID == periodID {
			return p, periods, nil
		}
	}
	return model.Period{}, nil, fmt.Errorf("owner %s has no period %s", owner, periodID)
}

// Close transitions an OPEN period to CLOSED, persisting one balance
// snapshot per account. When snapshots is nil they are computed from the
// rolled-forward openings, the period's ledger entries, and the budget
// variance at the period's end date. Everything is computed and validated
// up front and persisted in a single atomic store write, so a failed close
// leaves state unchanged.
func (c *Coordinator) Close(owner, periodID uuid.UUID, snapshots []model.BalanceSnapshot) error {
	target, periods, err := c.find(owner, periodID)
	if err != nil {
		return err
	}
	if target.Status != model.StatusOpen {
		return PeriodNotOpenError{Period: target.ID, Status: target.Status}
	}
	for i, p := range periods {
		if p.ID == target.ID && i > 0 && !periods[i-1].Closed() {
			return PreviousPeriodOpenError{Period: target.ID, Previous: periods[i-1].ID}
		}
	}

	if snapshots == nil {
		snapshots, err = c.ComputeSnapshots(owner, target)
		if err != nil {
			return err
		}
	}

	target.Status = model.StatusClosed
	if err := c.store.ClosePeriod(target, snapshots); err != nil {
		return fmt.Errorf("closing period: %w", err)
	}
	return nil
}

// ComputeSnapshots builds the balance snapshots a close would persist for
// the period, without writing anything.
func (c *Coordinator) ComputeSnapshots(owner uuid.UUID, target model.Period) ([]model.BalanceSnapshot, error) {
	openings, err := c.engine.OpeningBalancesFor(target)
	if err != nil {
		return nil, err
	}
	entries, err := c.store.EntriesBetween(owner, target.Start, target.End)
	if err != nil {
		return nil, fmt.Errorf("loading period entries: %w", err)
	}
	mutations := make(map[uuid.UUID]model.Mutation)
	for _, e := range entries {
		e.Apply(mutations)
	}

	accounts, err := c.store.AccountsFor(owner)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	groups, err := c.store.GroupsFor(owner)
	if err != nil {
		return nil, fmt.Errorf("loading account groups: %w", err)
	}
	byGroup := make(map[uuid.UUID]model.AccountGroup, len(groups))
	for _, g := range groups {
		byGroup[g.ID] = g
	}
	ordered, err := c.store.PeriodsFor(owner)
	if err != nil {
		return nil, fmt.Errorf("loading periods: %w", err)
	}

	var out []model.BalanceSnapshot
	for _, a := range accounts {
		opening := openings[a.ID]
		mut := mutations[a.ID]
		v := budget.Variance{Arrears: opening.Arrears}
		if a.ValidIn(target, ordered) {
			v, err = budget.Calculate(budget.Input{
				Account:      a,
				Group:        byGroup[a.GroupID],
				Period:       target,
				AsOf:         target.End,
				Paid:         mut.Payment,
				PriorArrears: opening.Arrears,
			})
			if err != nil {
				return nil, err
			}
		}
		out = append(out, model.BalanceSnapshot{
			ID:               uuid.New(),
			Period:           target.ID,
			Account:          a.ID,
			OpeningBalance:   opening.Balance,
			OpeningReserved:  opening.Reserved,
			OpeningWithdrawn: opening.Withdrawn,
			OpeningArrears:   opening.Arrears,
			Payment:          mut.Payment,
			Reservation:      mut.Reservation,
			Withdrawal:       mut.Withdrawal,
			ArrearsAccrued:   v.Arrears.Sub(opening.Arrears),
			Correction:       decimal.Zero,
		})
	}
	return out, nil
}

// Reopen undoes the most recent close: the period returns to OPEN and its
// snapshots are deleted. Only the owner's most recently closed period may be
// reopened.
func (c *Coordinator) Reopen(owner, periodID uuid.UUID) error {
	target, periods, err := c.find(owner, periodID)
	if err != nil {
		return err
	}
	if target.Status != model.StatusClosed {
		return rollforward.PeriodNotClosedError{Period: target.ID, Status: target.Status}
	}
	for _, p := range periods {
		if p.Closed() && p.Start.After(target.Start) {
			return NotLastClosedError{Period: target.ID}
		}
	}

	target.Status = model.StatusOpen
	if err := c.store.ReopenPeriod(target); err != nil {
		return fmt.Errorf("reopening period: %w", err)
	}
	return nil
}

// Archive transitions a CLOSED period to ARCHIVED, purges ledger entries up
// to and including its end date, and archives every earlier period that is
// not archived yet. From then on the period's snapshots are the sole source
// of truth.
func (c *Coordinator) Archive(owner, periodID uuid.UUID) error {
	target, periods, err := c.find(owner, periodID)
	if err != nil {
		return err
	}
	if !target.Closed() {
		return rollforward.PeriodNotClosedError{Period: target.ID, Status: target.Status}
	}

	for _, p := range periods {
		if p.Start.After(target.Start) || p.Status == model.StatusArchived {
			continue
		}
		p.Status = model.StatusArchived
		if err := c.store.SavePeriod(p); err != nil {
			return fmt.Errorf("marking period archived: %w", err)
		}
	}
	if err := c.store.DeleteEntriesThrough(owner, target.End); err != nil {
		return fmt.Errorf("purging ledger: %w", err)
	}
	return nil
}

// AmendOpening retroactively corrects opening balances of a CLOSED period
// without reopening it: the difference between the new and stored opening is
// written into the snapshot's correction, so the next period inherits the
// fix while the stored opening stays auditable.
func (c *Coordinator) AmendOpening(owner, periodID uuid.UUID, newOpenings map[uuid.UUID]decimal.Decimal) error {
	target, _, err := c.find(owner, periodID)
	if err != nil {
		return err
	}
	if target.Status != model.StatusClosed {
		return rollforward.PeriodNotClosedError{Period: target.ID, Status: target.Status}
	}
	snaps, err := c.store.SnapshotsFor(target.ID)
	if err != nil {
		return fmt.Errorf("loading snapshots: %w", err)
	}
	byAccount := make(map[uuid.UUID]model.BalanceSnapshot, len(snaps))
	for _, s := range snaps {
		byAccount[s.Account] = s
	}

	for account, newOpening := range newOpenings {
		s, ok := byAccount[account]
		if !ok {
			return AccountNotFoundError{Owner: owner, Account: account}
		}
		s.Correction = newOpening.Sub(s.OpeningBalance)
		if err := c.store.SaveSnapshot(s); err != nil {
			return fmt.Errorf("amending snapshot: %w", err)
		}
	}
	return nil
}

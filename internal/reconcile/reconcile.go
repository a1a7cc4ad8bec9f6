// Package reconcile compares the derived savings-pot balance against the
// real savings-account balance and posts a correcting entry to the pot side
// when they diverge. The bank-side balance is never touched.
package reconcile

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/rollforward"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// SavingsLinkNotFoundError signals that a divergence was found but no
// savings pot is linked to a savings account to carry the correction.
type SavingsLinkNotFoundError struct {
	Owner uuid.UUID
}

func (e SavingsLinkNotFoundError) Error() string {
	return fmt.Sprintf("owner %s has no savings pot linked to a savings account", e.Owner)
}

// Report describes one reconciliation run.
type Report struct {
	SavingsAccountBalance decimal.Decimal
	SavingsPotBalance     decimal.Decimal
	Correction            decimal.Decimal
	Message               string
}

// Service reconciles pots against savings accounts.
type Service struct {
	store store.Store
}

// NewService creates a Service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Reconcile compares the owner's savings-account total with the savings-pot
// total as of the latest closed period. On divergence the difference is
// posted as a correction on the linked pot's snapshot, so afterwards the two
// totals agree to the cent.
func (s *Service) Reconcile(owner uuid.UUID) (Report, error) {
	periods, err := s.store.PeriodsFor(owner)
	if err != nil {
		return Report{}, fmt.Errorf("loading periods: %w", err)
	}
	var latest *model.Period
	for i := range periods {
		if periods[i].Closed() {
			latest = &periods[i]
		}
	}
	if latest == nil {
		return Report{}, rollforward.NoClosedPeriodError{Owner: owner}
	}

	accounts, err := s.store.AccountsFor(owner)
	if err != nil {
		return Report{}, fmt.Errorf("loading accounts: %w", err)
	}
	groups, err := s.store.GroupsFor(owner)
	if err != nil {
		return Report{}, fmt.Errorf("loading account groups: %w", err)
	}
	kindOf := make(map[uuid.UUID]model.GroupKind, len(accounts))
	for _, a := range accounts {
		for _, g := range groups {
			if g.ID == a.GroupID {
				kindOf[a.ID] = g.Kind
			}
		}
	}

	snaps, err := s.store.SnapshotsFor(latest.ID)
	if err != nil {
		return Report{}, fmt.Errorf("loading snapshots: %w", err)
	}

	var report Report
	var potSnapshot *model.BalanceSnapshot
	for i := range snaps {
		snap := snaps[i]
		switch kindOf[snap.Account] {
		case model.GroupSavingsAccount:
			report.SavingsAccountBalance = report.SavingsAccountBalance.Add(snap.Closing().Balance)
		case model.GroupSavingsPot:
			report.SavingsPotBalance = report.SavingsPotBalance.Add(snap.PotBalance())
			if linkedToSavings(accounts, kindOf, snap.Account) {
				potSnapshot = &snaps[i]
			}
		}
	}

	if report.SavingsAccountBalance.Equal(report.SavingsPotBalance) {
		report.Message = fmt.Sprintf("savings in balance at %s", report.SavingsAccountBalance.StringFixed(2))
		return report, nil
	}

	if potSnapshot == nil {
		return Report{}, SavingsLinkNotFoundError{Owner: owner}
	}

	report.Correction = report.SavingsAccountBalance.Sub(report.SavingsPotBalance)
	potSnapshot.Correction = potSnapshot.Correction.Add(report.Correction)
	if err := s.store.SaveSnapshot(*potSnapshot); err != nil {
		return Report{}, fmt.Errorf("posting correction: %w", err)
	}
	report.SavingsPotBalance = report.SavingsPotBalance.Add(report.Correction)
	report.Message = fmt.Sprintf(
		"savings accounts hold %s but pots reserved %s; corrected pot by %s",
		report.SavingsAccountBalance.StringFixed(2),
		report.SavingsPotBalance.Sub(report.Correction).StringFixed(2),
		report.Correction.StringFixed(2))
	return report, nil
}

// linkedToSavings reports whether the pot account is paired with a
// savings account.
func linkedToSavings(accounts []model.Account, kindOf map[uuid.UUID]model.GroupKind, pot uuid.UUID) bool {
	for _, a := range accounts {
		if a.ID != pot || a.LinkedAccount == nil {
			continue
		}
		return kindOf[*a.LinkedAccount] == model.GroupSavingsAccount
	}
	return false
}

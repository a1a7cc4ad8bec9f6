package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GroupKind classifies an account group. It determines whether the group's
// accounts contribute to the balance-sheet view or the result (income/expense)
// view.
type GroupKind string

const (
	GroupChecking       GroupKind = "checking"
	GroupSavingsAccount GroupKind = "savings-account"
	GroupCash           GroupKind = "cash"
	GroupCreditCard     GroupKind = "credit-card"
	GroupIncome         GroupKind = "income"
	GroupExpense        GroupKind = "expense"
	GroupDebtRepayment  GroupKind = "debt-repayment"
	GroupSavingsPot     GroupKind = "savings-pot"
)

// OnBalanceSheet reports whether accounts of this kind hold money (as opposed
// to explaining where it went).
func (k GroupKind) OnBalanceSheet() bool {
	switch k {
	case GroupChecking, GroupSavingsAccount, GroupCash, GroupCreditCard, GroupSavingsPot:
		return true
	}
	return false
}

// Liquid reports whether the kind is directly spendable money. Savings pots
// are reservations carved out of liquid balances, not liquid themselves.
func (k GroupKind) Liquid() bool {
	switch k {
	case GroupChecking, GroupCash:
		return true
	}
	return false
}

// BudgetType determines how an account's budget rule accrues within a period.
type BudgetType string

const (
	BudgetIncome     BudgetType = "income"
	BudgetFixed      BudgetType = "fixed"
	BudgetContinuous BudgetType = "continuous"
	BudgetSavings    BudgetType = "savings"
	BudgetNone       BudgetType = ""
)

// Periodicity is the cadence a budget rule's amount is expressed in.
type Periodicity string

const (
	PerWeek  Periodicity = "week"
	PerMonth Periodicity = "month"
)

// AccountGroup names a set of accounts sharing a kind and budget semantics.
type AccountGroup struct {
	ID         uuid.UUID
	Owner      uuid.UUID
	Name       string
	Kind       GroupKind
	BudgetType BudgetType
}

// BudgetRule is the periodic expectation attached to an account.
type BudgetRule struct {
	Amount      decimal.Decimal
	Periodicity Periodicity
	// DueDay is the day-of-month the full amount falls due. Nil for rules
	// that accrue continuously; required for fixed rules.
	DueDay *int
	// Tolerance is the variance band as a fraction (0.05 = 5%).
	Tolerance decimal.Decimal
}

// Account is one budgeted position within an administration. Names are unique
// per owner. References are id-based; resolve groups and linked accounts
// through the catalog, never through embedded pointers.
type Account struct {
	ID      uuid.UUID
	Owner   uuid.UUID
	GroupID uuid.UUID
	Name    string
	Rule    BudgetRule
	// FromPeriod/ThroughPeriod bound the account's validity. Nil = unbounded.
	FromPeriod    *uuid.UUID
	ThroughPeriod *uuid.UUID
	// Months restricts the rule to specific calendar months (1..12).
	// Empty means every month.
	Months []time.Month
	// LinkedAccount pairs this account with another, e.g. a savings pot
	// with the savings account it reserves against.
	LinkedAccount *uuid.UUID
}

// ExpectedIn reports whether the account's rule applies in the given month.
func (a Account) ExpectedIn(month time.Month) bool {
	if len(a.Months) == 0 {
		return true
	}
	for _, m := range a.Months {
		if m == month {
			return true
		}
	}
	return false
}

// ValidIn reports whether the account is in effect for the given period,
// using the stable start-date order of the owner's periods.
func (a Account) ValidIn(period Period, ordered []Period) bool {
	idx := func(id uuid.UUID) int {
		for i, p := range ordered {
			if p.ID == id {
				return i
			}
		}
		return -1
	}
	target := idx(period.ID)
	if target < 0 {
		return false
	}
	if a.FromPeriod != nil {
		if from := idx(*a.FromPeriod); from >= 0 && target < from {
			return false
		}
	}
	if a.ThroughPeriod != nil {
		if through := idx(*a.ThroughPeriod); through >= 0 && target > through {
			return false
		}
	}
	return true
}

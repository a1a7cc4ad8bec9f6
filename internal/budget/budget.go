// Package budget turns an account's budget rule and its payments-to-date
// into the monthly-equivalent amount, the amount due as of a reference date,
// and the shortfall/overage/arrears picture.
package budget

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
)

// MissingDueDayError signals a fixed budget rule without a due day.
type MissingDueDayError struct {
	Account uuid.UUID
	Name    string
}

func (e MissingDueDayError) Error() string {
	return fmt.Sprintf("account %s (%s) has a fixed budget rule but no due day", e.Name, e.Account)
}

var seven = decimal.NewFromInt(7)

// MonthlyAmount converts a budget rule to its monthly equivalent for a period
// of the given length. Weekly rules scale by daysInPeriod/7; monthly rules
// pass through. Rounded to 2 decimals, half up.
func MonthlyAmount(rule model.BudgetRule, daysInPeriod int) decimal.Decimal {
	if rule.Periodicity == model.PerWeek {
		days := decimal.NewFromInt(int64(daysInPeriod))
		return rule.Amount.Mul(days).Div(seven).Round(2)
	}
	return rule.Amount.Round(2)
}

// DueDate returns the date a fixed rule's full amount falls due within the
// period: the rule's due day in the period's start month, rolled to the next
// month when the due day precedes the period start's day-of-month.
func DueDate(dueDay int, p model.Period) time.Time {
	year, month := p.Start.Year(), p.Start.Month()
	if dueDay < p.Start.Day() {
		month++
	}
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	day := dueDay
	if last := firstOfNext.AddDate(0, 0, -1).Day(); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DueAsOf returns how much of the account's budget is due by the given date
// within the period. Accounts outside their eligible months owe nothing.
func DueAsOf(a model.Account, g model.AccountGroup, p model.Period, asOf time.Time) (decimal.Decimal, error) {
	if g.BudgetType == model.BudgetNone || !a.ExpectedIn(p.Start.Month()) {
		return decimal.Zero, nil
	}
	monthly := MonthlyAmount(a.Rule, p.Days())
	return amountDueAsOf(Input{Account: a, Group: g, Period: p, AsOf: asOf}, monthly)
}

// Input is everything needed to compute one account's variance for a period.
type Input struct {
	Account model.Account
	Group   model.AccountGroup
	Period  model.Period
	AsOf    time.Time
	// Paid is the signed sum of the account's payments within the period up
	// to AsOf.
	Paid decimal.Decimal
	// PriorArrears is the arrears inherited at period opening.
	PriorArrears decimal.Decimal
}

// Variance is the per-account budget picture as of a reference date.
type Variance struct {
	Account uuid.UUID

	MonthlyAmount decimal.Decimal
	Due           decimal.Decimal
	Paid          decimal.Decimal

	Expected        bool
	WithinTolerance bool
	Settled         bool

	OverMonthlyBudget  decimal.Decimal
	UnderDue           decimal.Decimal
	OverDue            decimal.Decimal
	RemainingThisMonth decimal.Decimal
	Arrears            decimal.Decimal
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// amountDueAsOf computes how much of the monthly amount is due. Fixed and
// income rules step to the full amount on the due date; everything else
// accrues linearly over the period, capped once the reference date passes
// the period end.
func amountDueAsOf(in Input, monthly decimal.Decimal) (decimal.Decimal, error) {
	asOf := in.AsOf
	p := in.Period

	switch in.Group.BudgetType {
	case model.BudgetFixed:
		if in.Account.Rule.DueDay == nil {
			return decimal.Zero, MissingDueDayError{Account: in.Account.ID, Name: in.Account.Name}
		}
		if asOf.Before(DueDate(*in.Account.Rule.DueDay, p)) {
			return decimal.Zero, nil
		}
		return monthly, nil
	case model.BudgetIncome:
		// Income falls due on its due day when one is set, otherwise at
		// period start.
		due := p.Start
		if in.Account.Rule.DueDay != nil {
			due = DueDate(*in.Account.Rule.DueDay, p)
		}
		if asOf.Before(due) {
			return decimal.Zero, nil
		}
		return monthly, nil
	default:
		if asOf.Before(p.Start) {
			return decimal.Zero, nil
		}
		if !asOf.Before(p.End) {
			return monthly, nil
		}
		elapsed := decimal.NewFromInt(int64(asOf.Sub(p.Start).Hours()/24) + 1)
		days := decimal.NewFromInt(int64(p.Days()))
		return monthly.Mul(elapsed).Div(days).Round(2), nil
	}
}

/// expenseArrears is the arrears convention for an ordinary fixed expense:
// the inherited arrears grow by what is due and unpaid, shrink by payments,
// and never go negative.
func expenseArrears(prior, due, paidAbs decimal.Decimal) decimal.Decimal {
	return clampZero(prior.Add(due).Sub(paidAbs))
}

// debtArrears is the arrears convention for a debt-repayment account: the
// inherited arrears are the outstanding debt, each period's due installment
// adds to it, and every payment amortizes it. Overpayment beyond the
// outstanding amount clamps at zero rather than flipping sign.
func debtArrears(prior, due, paidAbs decimal.Decimal) decimal.Decimal {
	outstanding := prior.Add(due)
	if paidAbs.GreaterThan(outstanding) {
		return decimal.Zero
	}
	return outstanding.Sub(paidAbs)
}

// Calculate computes the variance for one account.
func Calculate(in Input) (Variance, error) {
	v := Variance{Account: in.Account.ID, Paid: in.Paid}

	if in.Group.BudgetType == model.BudgetNone {
		v.Arrears = in.PriorArrears
		return v, nil
	}

	monthly := MonthlyAmount(in.Account.Rule, in.Period.Days())
	v.MonthlyAmount = monthly
	v.Expected = in.Account.ExpectedIn(in.Period.Start.Month())

	paidAbs := in.Paid.Abs()

	if v.Expected {
		due, err := amountDueAsOf(in, monthly)
		if err != nil {
			return Variance{}, err
		}
		v.Due = due
	}

	tolerance := monthly.Mul(in.Account.Rule.Tolerance)
	low := monthly.Sub(tolerance)
	high := monthly.Add(tolerance)
	v.WithinTolerance = paidAbs.GreaterThanOrEqual(low) && paidAbs.LessThanOrEqual(high)

	fixedLike := in.Group.BudgetType == model.BudgetFixed || in.Group.Kind == model.GroupDebtRepayment
	if fixedLike {
		v.Settled = !v.Expected || v.WithinTolerance
	}

	if !v.Settled {
		v.OverMonthlyBudget = clampZero(paidAbs.Sub(monthly))
		v.UnderDue = clampZero(v.Due.Sub(paidAbs))
		v.OverDue = clampZero(paidAbs.Sub(v.Due).Sub(v.OverMonthlyBudget))
		v.RemainingThisMonth = clampZero(monthly.Sub(paidAbs).Sub(v.UnderDue))
	}

	if in.Group.Kind == model.GroupDebtRepayment {
		v.Arrears = debtArrears(in.PriorArrears, v.Due, paidAbs)
	} else {
		v.Arrears = expenseArrears(in.PriorArrears, v.Due, paidAbs)
	}

	return v, nil
}

// Package cashflow projects day-by-day money movement over a period,
// blending realized payments up to the last payment date with budgeted
// expectations beyond it.
package cashflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huishoudboek-dev/huishoudboek/internal/budget"
	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/rollforward"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// Day is one row of the projection. Saldo is the realized running balance
// and is nil for days after the last payment date; Prognose carries the
// forecast forward from where the realized balance stops.
type Day struct {
	Date     time.Time
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Saldo    *decimal.Decimal
	Prognose decimal.Decimal
}

// Projection is the day grid plus the derived horizon markers.
type Projection struct {
	Days []Day
	// BudgetHorizon is the last date the projected balance, net of the
	// pots-for-now offset, is still positive: the date the money runs out.
	BudgetHorizon time.Time
	// ReservationHorizon is how far the owner's reservations reach.
	ReservationHorizon time.Time
}

// Params configures one projection run.
type Params struct {
	Owner  uuid.UUID
	Period model.Period
	// PotsForNow is reserve earmarked for spending within the horizon; it
	// is subtracted from each day's balance when deriving BudgetHorizon.
	PotsForNow decimal.Decimal
}

// Projector builds cashflow projections.
type Projector struct {
	store  store.Store
	engine *rollforward.Engine
}

// NewProjector creates a Projector.
func NewProjector(s store.Store) *Projector {
	return &Projector{store: s, engine: rollforward.NewEngine(s, s, s, s)}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// Project builds the day grid for the period, anchored one day before the
// period start at the opening reservation-adjusted balance.
func (pr *Projector) Project(params Params) (Projection, error) {
	period := params.Period
	owner := params.Owner

	openings, err := pr.engine.OpeningBalancesFor(period)
	if err != nil {
		return Projection{}, err
	}
	accounts, err := pr.store.AccountsFor(owner)
	if err != nil {
		return Projection{}, fmt.Errorf("loading accounts: %w", err)
	}
	groups, err := pr.store.GroupsFor(owner)
	if err != nil {
		return Projection{}, fmt.Errorf("loading account groups: %w", err)
	}
	byGroup := make(map[uuid.UUID]model.AccountGroup, len(groups))
	for _, g := range groups {
		byGroup[g.ID] = g
	}

	ordered, err := pr.store.PeriodsFor(owner)
	if err != nil {
		return Projection{}, fmt.Errorf("loading periods: %w", err)
	}

	anchorDate := period.Start.AddDate(0, 0, -1)
	anchor := openingValue(accounts, byGroup, openings)

	lastPayment, err := pr.store.LastPaymentDate(owner)
	if err != nil {
		return Projection{}, fmt.Errorf("loading last payment date: %w", err)
	}
	lp := anchorDate
	if lastPayment != nil && lastPayment.After(lp) {
		lp = *lastPayment
	}
	if lp.After(period.End) {
		lp = period.End
	}

	entries, err := pr.store.EntriesBetween(owner, period.Start, lp)
	if err != nil {
		return Projection{}, fmt.Errorf("loading period entries: %w", err)
	}
	realizedIncome, realizedExpense := realizedByDay(entries)
	paid := paidPerAccount(entries)

	forecastIncome, forecastExpense, err := forecast(accounts, byGroup, period, ordered, lp, paid)
	if err != nil {
		return Projection{}, err
	}

	days := make([]Day, 0, period.Days()+1)
	saldo := anchor
	days = append(days, Day{Date: anchorDate, Saldo: dec(saldo), Prognose: saldo})

	prognose := anchor
	for d := period.Start; !d.After(period.End); d = d.AddDate(0, 0, 1) {
		key := dayKey(d)
		var row Day
		row.Date = d
		if !d.After(lp) {
			row.Income = realizedIncome[key]
			row.Expenses = realizedExpense[key]
			saldo = saldo.Add(row.Income).Sub(row.Expenses)
			row.Saldo = dec(saldo)
			row.Prognose = saldo
			prognose = saldo
		} else {
			row.Income = forecastIncome[key]
			row.Expenses = forecastExpense[key]
			prognose = prognose.Add(row.Income).Sub(row.Expenses)
			row.Prognose = prognose
		}
		days = append(days, row)
	}

	horizon := anchorDate
	for _, row := range days {
		value := row.Prognose
		if row.Saldo != nil {
			value = *row.Saldo
		}
		if value.Sub(params.PotsForNow).IsPositive() {
			horizon = row.Date
			continue
		}
		if !row.Date.Equal(anchorDate) {
			break
		}
	}

	reservationHorizon, err := pr.store.MaxReservationHorizon(owner)
	if err != nil {
		return Projection{}, fmt.Errorf("loading reservation horizon: %w", err)
	}
	resHorizon := anchorDate
	if reservationHorizon != nil {
		resHorizon = *reservationHorizon
	}

	return Projection{
		Days:               days,
		BudgetHorizon:      horizon,
		ReservationHorizon: resHorizon,
	}, nil
}

func dec(d decimal.Decimal) *decimal.Decimal { return &d }

// openingValue is the anchor balance: liquid account balances minus what is
// tied up in savings pots.
func openingValue(accounts []model.Account, byGroup map[uuid.UUID]model.AccountGroup, openings map[uuid.UUID]model.Balances) decimal.Decimal {
	value := decimal.Zero
	for _, a := range accounts {
		b, ok := openings[a.ID]
		if !ok {
			continue
		}
		switch {
		case byGroup[a.GroupID].Kind.Liquid():
			value = value.Add(b.Balance)
		case byGroup[a.GroupID].Kind == model.GroupSavingsPot:
			value = value.Sub(b.Reserved.Sub(b.Withdrawn))
		}
	}
	return value
}

// realizedByDay sums realized income and expenses per day. Pot withdrawals
// release money back to the liquid side and count as income.
func realizedByDay(entries []model.LedgerEntry) (income, expense map[string]decimal.Decimal) {
	income = make(map[string]decimal.Decimal)
	expense = make(map[string]decimal.Decimal)
	for _, e := range entries {
		key := dayKey(e.Date)
		switch e.Kind {
		case model.KindIncome, model.KindWithdrawal:
			income[key] = income[key].Add(e.Amount)
		case model.KindExpense, model.KindRepayment, model.KindSaving:
			expense[key] = expense[key].Add(e.Amount)
		}
	}
	return income, expense
}

// paidPerAccount sums what flowed into each account (absolute) over the
// realized stretch.
func paidPerAccount(entries []model.LedgerEntry) map[uuid.UUID]decimal.Decimal {
	mutations := make(map[uuid.UUID]model.Mutation)
	for _, e := range entries {
		e.Apply(mutations)
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(mutations))
	for id, m := range mutations {
		out[id] = m.Payment.Abs()
	}
	return out
}

// forecast spreads each budgeted account's remaining due over the forecast
// days. For due-stepped budgets the covered amount starts at what was
// actually paid, so installments already past due land in one catch-up
// bundle on the first forecast day instead of being silently dropped, and
// later installments land on their due days. Continuous budgets resume
// their daily accrual from the last payment date; a shortfall built up
// before that is arrears, not something to forecast again.
func forecast(accounts []model.Account, byGroup map[uuid.UUID]model.AccountGroup, period model.Period, ordered []model.Period, lp time.Time, paid map[uuid.UUID]decimal.Decimal) (income, expense map[string]decimal.Decimal, err error) {
	income = make(map[string]decimal.Decimal)
	expense = make(map[string]decimal.Decimal)

	for _, a := range accounts {
		g := byGroup[a.GroupID]
		if g.BudgetType == model.BudgetNone || !a.ValidIn(period, ordered) {
			continue
		}
		isIncome := g.BudgetType == model.BudgetIncome
		covered := paid[a.ID]
		if g.BudgetType == model.BudgetContinuous || g.BudgetType == model.BudgetSavings {
			accrued, err := budget.DueAsOf(a, g, period, lp)
			if err != nil {
				return nil, nil, err
			}
			if accrued.GreaterThan(covered) {
				covered = accrued
			}
		}

		for d := lp.AddDate(0, 0, 1); !d.After(period.End); d = d.AddDate(0, 0, 1) {
			due, err := budget.DueAsOf(a, g, period, d)
			if err != nil {
				return nil, nil, err
			}
			if !due.GreaterThan(covered) {
				continue
			}
			add := due.Sub(covered)
			covered = due
			key := dayKey(d)
			if isIncome {
				income[key] = income[key].Add(add)
			} else {
				expense[key] = expense[key].Add(add)
			}
		}
	}
	return income, expense, nil
}

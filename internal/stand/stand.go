// Package stand aggregates the per-account budget variance picture for an
// owner at a reference date.
package stand

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huishoudboek-dev/huishoudboek/internal/budget"
	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/period"
	"github.com/huishoudboek-dev/huishoudboek/internal/rollforward"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// Line is one account's variance within a stand report.
type Line struct {
	Account model.Account
	Group   model.AccountGroup
	budget.Variance
}

// Report is the owner's budget picture at a date.
type Report struct {
	Owner  uuid.UUID
	Period model.Period
	AsOf   time.Time
	Lines  []Line
}

// Service computes stand reports.
type Service struct {
	store   store.Store
	periods *period.Manager
	engine  *rollforward.Engine
}

// NewService creates a Service.
func NewService(s store.Store) *Service {
	return &Service{
		store:   s,
		periods: period.NewManager(s),
		engine:  rollforward.NewEngine(s, s, s, s),
	}
}

// At computes the variance of every account valid in the period covering the
// date, with payments counted from the period start through the date.
func (s *Service) At(owner uuid.UUID, asOf time.Time) (Report, error) {
	asOf = period.Day(asOf)
	p, err := s.periods.PeriodFor(owner, asOf)
	if err != nil {
		return Report{}, err
	}
	openings, err := s.engine.OpeningBalancesFor(p)
	if err != nil {
		return Report{}, err
	}
	entries, err := s.store.EntriesBetween(owner, p.Start, asOf)
	if err != nil {
		return Report{}, fmt.Errorf("loading entries: %w", err)
	}
	mutations := make(map[uuid.UUID]model.Mutation)
	for _, e := range entries {
		e.Apply(mutations)
	}

	accounts, err := s.store.AccountsFor(owner)
	if err != nil {
		return Report{}, fmt.Errorf("loading accounts: %w", err)
	}
	groups, err := s.store.GroupsFor(owner)
	if err != nil {
		return Report{}, fmt.Errorf("loading account groups: %w", err)
	}
	byGroup := make(map[uuid.UUID]model.AccountGroup, len(groups))
	for _, g := range groups {
		byGroup[g.ID] = g
	}
	ordered, err := s.store.PeriodsFor(owner)
	if err != nil {
		return Report{}, fmt.Errorf("loading periods: %w", err)
	}

	report := Report{Owner: owner, Period: p, AsOf: asOf}
	for _, a := range accounts {
		if !a.ValidIn(p, ordered) {
			continue
		}
		v, err := budget.Calculate(budget.Input{
			Account:      a,
			Group:        byGroup[a.GroupID],
			Period:       p,
			AsOf:         asOf,
			Paid:         mutations[a.ID].Payment,
			PriorArrears: openings[a.ID].Arrears,
		})
		if err != nil {
			return Report{}, err
		}
		report.Lines = append(report.Lines, Line{Account: a, Group: byGroup[a.GroupID], Variance: v})
	}
	return report, nil
}

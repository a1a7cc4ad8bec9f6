// Package period owns the accounting-period lifecycle: deriving boundaries
// from an owner's cutoff day, generating missing periods, and reshaping open
// periods when the cutoff day changes.
package period

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
)

// NoPeriodError signals that no period covers the requested date.
type NoPeriodError struct {
	Owner uuid.UUID
	Date  time.Time
}

func (e NoPeriodError) Error() string {
	return fmt.Sprintf("no period covers %s for owner %s", e.Date.Format("2006-01-02"), e.Owner)
}

// Manager drives the period lifecycle for all owners.
type Manager struct {
	periods store.PeriodStore
	now     func() time.Time
}

// NewManager creates a Manager. The clock defaults to time.Now.
func NewManager(periods store.PeriodStore) *Manager {
	return &Manager{periods: periods, now: time.Now}
}

// WithClock overrides the manager's notion of today.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Day truncates a timestamp to its calendar day in UTC. All period math runs
// on day granularity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cutoffIn returns the cutoff day within the given month, clamped to the
// month's length so a cutoff of 31 still lands inside February.
func cutoffIn(cutoffDay int, year int, month time.Month) time.Time {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfNext.AddDate(0, 0, -1).Day()
	day := cutoffDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// nextCutoffAfter returns the first occurrence of the cutoff day strictly
// after d.
func nextCutoffAfter(cutoffDay int, d time.Time) time.Time {
	candidate := cutoffIn(cutoffDay, d.Year(), d.Month())
	if !candidate.After(d) {
		candidate = cutoffIn(cutoffDay, d.Year(), d.Month()+1)
	}
	return candidate
}

// BoundariesFor returns the period boundaries covering date: start is the
// most recent cutoff day at or before date, end is the day before the next
// cutoff day.
func BoundariesFor(cutoffDay int, date time.Time) (start, end time.Time) {
	date = Day(date)
	start = cutoffIn(cutoffDay, date.Year(), date.Month())
	if start.After(date) {
		start = cutoffIn(cutoffDay, date.Year(), date.Month()-1)
	}
	end = nextCutoffAfter(cutoffDay, start).AddDate(0, 0, -1)
	return start, end
}

// PeriodFor returns the owner's period covering date.
func (m *Manager) PeriodFor(owner uuid.UUID, date time.Time) (model.Period, error) {
	periods, err := m.periods.PeriodsFor(owner)
	if err != nil {
		return model.Period{}, fmt.Errorf("loading periods: %w", err)
	}
	date = Day(date)
	for _, p := range periods {
		if p.Contains(date) {
			return p, nil
		}
	}
	return model.Period{}, NoPeriodError{Owner: owner, Date: date}
}

// EnsurePeriodsUpToToday creates whatever periods are missing between the
// owner's latest period and today. A brand-new owner gets a zero-length
// archived seed period ending the day before the first real period, so
// rollforward always has a closed base to start from. Generation is a loop,
// one period per iteration; only the newest period is CURRENT.
func (m *Manager) EnsurePeriodsUpToToday(owner uuid.UUID, cutoffDay int) ([]model.Period, error) {
	periods, err := m.periods.PeriodsFor(owner)
	if err != nil {
		return nil, fmt.Errorf("loading periods: %w", err)
	}
	today := Day(m.now())

	if len(periods) == 0 {
		firstStart, _ := BoundariesFor(cutoffDay, today)
		seed := model.Period{
			ID:     uuid.New(),
			Owner:  owner,
			Start:  firstStart.AddDate(0, 0, -1),
			End:    firstStart.AddDate(0, 0, -1),
			Status: model.StatusArchived,
		}
		if err := m.periods.SavePeriod(seed); err != nil {
			return nil, fmt.Errorf("saving seed period: %w", err)
		}
		periods = []model.Period{seed}
	}

	latest := periods[len(periods)-1]
	for latest.End.Before(today) {
		if latest.Status == model.StatusCurrent {
			latest.Status = model.StatusOpen
			if err := m.periods.SavePeriod(latest); err != nil {
				return nil, fmt.Errorf("demoting period: %w", err)
			}
			periods[len(periods)-1] = latest
		}

		start := latest.End.AddDate(0, 0, 1)
		next := model.Period{
			ID:     uuid.New(),
			Owner:  owner,
			Start:  start,
			End:    nextCutoffAfter(cutoffDay, start).AddDate(0, 0, -1),
			Status: model.StatusOpen,
		}
		if !next.End.Before(today) {
			next.Status = model.StatusCurrent
		}
		if err := m.periods.SavePeriod(next); err != nil {
			return nil, fmt.Errorf("saving generated period: %w", err)
		}
		periods = append(periods, next)
		latest = next
	}

	return periods, nil
}

// ChangeCutoffDay reshapes the boundaries of every not-yet-closed period to
// the new cutoff day, starting from the earliest OPEN/CURRENT period. That
// period keeps its start (it has already begun); each later one starts the
// day after its predecessor ends. Closed and archived periods are never
// touched.
func (m *Manager) ChangeCutoffDay(owner uuid.UUID, newDay int) error {
	periods, err := m.periods.PeriodsFor(owner)
	if err != nil {
		return fmt.Errorf("loading periods: %w", err)
	}

	var prevEnd time.Time
	reshaping := false
	for _, p := range periods {
		if p.Closed() {
			continue
		}
		if reshaping {
			p.Start = prevEnd.AddDate(0, 0, 1)
		}
		p.End = nextCutoffAfter(newDay, p.Start).AddDate(0, 0, -1)
		if err := m.periods.SavePeriod(p); err != nil {
			return fmt.Errorf("reshaping period: %w", err)
		}
		prevEnd = p.End
		reshaping = true
	}
	return nil
}

package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
)

// Memory is an in-memory Store. It is safe for concurrent use and returns
// copies, never internal slices. Tests use it as the engine's double.
type Memory struct {
	mu        sync.RWMutex
	accounts  []model.Account
	groups    []model.AccountGroup
	entries   []model.LedgerEntry
	periods   map[uuid.UUID]model.Period
	snapshots map[uuid.UUID]model.BalanceSnapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		periods:   make(map[uuid.UUID]model.Period),
		snapshots: make(map[uuid.UUID]model.BalanceSnapshot),
	}
}

// AddAccount registers an account.
func (m *Memory) AddAccount(a model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, a)
}

// AddGroup registers an account group.
func (m *Memory) AddGroup(g model.AccountGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append(m.groups, g)
}

// AccountsFor returns the owner's accounts.
func (m *Memory) AccountsFor(owner uuid.UUID) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Account
	for _, a := range m.accounts {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out, nil
}

// GroupsFor returns the owner's account groups.
func (m *Memory) GroupsFor(owner uuid.UUID) ([]model.AccountGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.AccountGroup
	for _, g := range m.groups {
		if g.Owner == owner {
			out = append(out, g)
		}
	}
	return out, nil
}

// SaveEntry appends a ledger entry.
func (m *Memory) SaveEntry(e model.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// EntriesBetween returns entries in [from, to] ordered by date.
func (m *Memory) EntriesBetween(owner uuid.UUID, from, to time.Time) ([]model.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.LedgerEntry
	for _, e := range m.entries {
		if e.Owner == owner && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// LastPaymentDate returns the owner's most recent entry date, nil if none.
func (m *Memory) LastPaymentDate(owner uuid.UUID) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *time.Time
	for _, e := range m.entries {
		if e.Owner != owner {
			continue
		}
		if last == nil || e.Date.After(*last) {
			d := e.Date
			last = &d
		}
	}
	return last, nil
}

// MaxReservationHorizon returns the furthest reservation-horizon tag carried
// by any of the owner's entries, nil if none carries one.
func (m *Memory) MaxReservationHorizon(owner uuid.UUID) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var horizon *time.Time
	for _, e := range m.entries {
		if e.Owner != owner || e.ReservationHorizon == nil {
			continue
		}
		if horizon == nil || e.ReservationHorizon.After(*horizon) {
			d := *e.ReservationHorizon
			horizon = &d
		}
	}
	return horizon, nil
}

// DeleteEntriesThrough purges the owner's entries dated at or before cutoff.
func (m *Memory) DeleteEntriesThrough(owner uuid.UUID, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Owner == owner && !e.Date.After(cutoff) {
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return nil
}

// PeriodsFor returns the owner's periods ordered by start date.
func (m *Memory) PeriodsFor(owner uuid.UUID) ([]model.Period, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Period
	for _, p := range m.periods {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// SavePeriod inserts or updates a period.
func (m *Memory) SavePeriod(p model.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	return nil
}

// Owners returns every owner that has at least one account or period.
func (m *Memory) Owners() ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, a := range m.accounts {
		if !seen[a.Owner] {
			seen[a.Owner] = true
			out = append(out, a.Owner)
		}
	}
	for _, p := range m.periods {
		if !seen[p.Owner] {
			seen[p.Owner] = true
			out = append(out, p.Owner)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// SnapshotsFor returns the period's balance snapshots.
func (m *Memory) SnapshotsFor(period uuid.UUID) ([]model.BalanceSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.BalanceSnapshot
	for _, s := range m.snapshots {
		if s.Period == period {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account.String() < out[j].Account.String() })
	return out, nil
}

// SaveSnapshot inserts or updates a snapshot.
func (m *Memory) SaveSnapshot(s model.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.ID] = s
	return nil
}

// ClosePeriod stores the period and all of its snapshots under one lock, so
// readers never observe the snapshots without the status flip.
func (m *Memory) ClosePeriod(p model.Period, snapshots []model.BalanceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	for _, s := range snapshots {
		m.snapshots[s.ID] = s
	}
	return nil
}

// ReopenPeriod stores the period and drops its snapshots under one lock.
func (m *Memory) ReopenPeriod(p model.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	for id, s := range m.snapshots {
		if s.Period == p.ID {
			delete(m.snapshots, id)
		}
	}
	return nil
}

// DeleteSnapshotsFor removes every snapshot of the period.
func (m *Memory) DeleteSnapshotsFor(period uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.snapshots {
		if s.Period == period {
			delete(m.snapshots, id)
		}
	}
	return nil
}

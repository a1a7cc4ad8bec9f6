// Package sweep is the nightly unit of work: advance every owner's CURRENT
// period and reconcile their savings pots. Owners are independent and run in
// parallel; within one owner the steps run strictly in order, and one
// owner's failure never aborts the others.
package sweep

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huishoudboek-dev/huishoudboek/internal/period"
	"github.com/huishoudboek-dev/huishoudboek/internal/reconcile"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
	"github.com/huishoudboek-dev/huishoudboek/internal/sweeplog"
)

// OwnerResult is the outcome of one owner's unit of work.
type OwnerResult struct {
	Owner   uuid.UUID
	Message string
	Err     error
}

// Sweeper runs the nightly sweep.
type Sweeper struct {
	store       store.Store
	cutoffDay   int
	parallelism int
	now         func() time.Time
}

// NewSweeper creates a Sweeper. Parallelism bounds how many owners are
// processed concurrently; values below 1 mean sequential.
func NewSweeper(s store.Store, cutoffDay, parallelism int) *Sweeper {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Sweeper{store: s, cutoffDay: cutoffDay, parallelism: parallelism, now: time.Now}
}

// WithClock overrides the sweeper's notion of now.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run processes every owner once and returns the per-owner outcomes in owner
// order.
func (s *Sweeper) Run() ([]OwnerResult, error) {
	owners, err := s.store.Owners()
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}

	results := make([]OwnerResult, len(owners))
	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup
	for i, owner := range owners {
		wg.Add(1)
		go func(i int, owner uuid.UUID) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.sweepOwner(owner)
		}(i, owner)
	}
	wg.Wait()

	return results, nil
}

// sweepOwner is one owner's serialized unit of work.
func (s *Sweeper) sweepOwner(owner uuid.UUID) OwnerResult {
	res := OwnerResult{Owner: owner}

	manager := period.NewManager(s.store).WithClock(s.now)
	if _, err := manager.EnsurePeriodsUpToToday(owner, s.cutoffDay); err != nil {
		res.Err = fmt.Errorf("ensuring periods: %w", err)
		return res
	}

	report, err := reconcile.NewService(s.store).Reconcile(owner)
	if err != nil {
		res.Err = fmt.Errorf("reconciling: %w", err)
		return res
	}
	res.Message = report.Message
	return res
}

// Log appends one sweep run's outcomes to the CSV sweep log under dataRoot.
func Log(dataRoot string, at time.Time, results []OwnerResult) error {
	entries := make([]sweeplog.Entry, len(results))
	for i, r := range results {
		e := sweeplog.Entry{
			Timestamp: at,
			Owner:     r.Owner.String(),
			Action:    "sweep",
			Details:   r.Message,
		}
		if r.Err != nil {
			e.Err = r.Err.Error()
		}
		entries[i] = e
	}
	return sweeplog.Append(dataRoot, entries)
}

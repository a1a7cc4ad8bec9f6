package model

import (
	"time"

	"github.com/google/uuid"
)

// PeriodStatus is the lifecycle state of an accounting period.
type PeriodStatus string

const (
	// StatusCurrent marks the single period covering today.
	StatusCurrent PeriodStatus = "current"
	// StatusOpen marks an elapsed period whose books are still open.
	StatusOpen PeriodStatus = "open"
	// StatusClosed marks a period with persisted balance snapshots.
	StatusClosed PeriodStatus = "closed"
	// StatusArchived marks a closed period whose ledger entries may have
	// been purged; its snapshots are the sole source of truth.
	StatusArchived PeriodStatus = "archived"
)

// Period is a contiguous, non-overlapping date range owned by one
// administration. End is inclusive.
type Period struct {
	ID     uuid.UUID
	Owner  uuid.UUID
	Start  time.Time
	End    time.Time
	Status PeriodStatus
}

// Closed reports whether the period's balances are frozen in snapshots.
func (p Period) Closed() bool {
	return p.Status == StatusClosed || p.Status == StatusArchived
}

// Contains reports whether d falls within the period (inclusive bounds).
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Package store defines the collaborator interfaces the budgeting engine
// consumes, with an in-memory implementation for tests and a SQLite
// implementation for real use.
package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
)

// AccountStore resolves accounts and account groups for an administration.
type AccountStore interface {
	AccountsFor(owner uuid.UUID) ([]model.Account, error)
	GroupsFor(owner uuid.UUID) ([]model.AccountGroup, error)
}

// LedgerStore supplies payment records filtered by owner and date range.
// Both bounds are inclusive.
type LedgerStore interface {
	EntriesBetween(owner uuid.UUID, from, to time.Time) ([]model.LedgerEntry, error)
	LastPaymentDate(owner uuid.UUID) (*time.Time, error)
	MaxReservationHorizon(owner uuid.UUID) (*time.Time, error)
	SaveEntry(entry model.LedgerEntry) error
	// DeleteEntriesThrough purges entries dated at or before the cutoff.
	DeleteEntriesThrough(owner uuid.UUID, cutoff time.Time) error
}

// PeriodStore persists periods. PeriodsFor returns periods ordered by start
// date, the stable order everything else relies on.
type PeriodStore interface {
	PeriodsFor(owner uuid.UUID) ([]model.Period, error)
	SavePeriod(period model.Period) error
	Owners() ([]uuid.UUID, error)
}

// SnapshotStore persists balance snapshots keyed by period.
type SnapshotStore interface {
	SnapshotsFor(period uuid.UUID) ([]model.BalanceSnapshot, error)
	SaveSnapshot(snapshot model.BalanceSnapshot) error
	DeleteSnapshotsFor(period uuid.UUID) error
}

// LifecycleStore applies a period-status transition together with its
// snapshot writes as one atomic step: either the status and every snapshot
// land, or nothing does.
type LifecycleStore interface {
	ClosePeriod(period model.Period, snapshots []model.BalanceSnapshot) error
	ReopenPeriod(period model.Period) error
}

// Store bundles every collaborator of the engine.
type Store interface {
	AccountStore
	LedgerStore
	PeriodStore
	SnapshotStore
	LifecycleStore
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind tags what a ledger entry represents.
type EntryKind string

const (
	KindIncome     EntryKind = "income"
	KindExpense    EntryKind = "expense"
	KindRepayment  EntryKind = "repayment"
	KindSaving     EntryKind = "saving"
	KindWithdrawal EntryKind = "withdrawal"
	KindTransfer   EntryKind = "transfer"
	KindCorrection EntryKind = "correction"
)

// LedgerEntry is one payment: money moves Amount from Source to Destination
// on Date. Entries may additionally carry a reservation pair, a virtual
// transfer between a pot and a real account tracked separately from the
// payment itself.
type LedgerEntry struct {
	ID          uuid.UUID
	Owner       uuid.UUID
	Date        time.Time
	Amount      decimal.Decimal
	Source      uuid.UUID
	Destination uuid.UUID
	Kind        EntryKind
	// ReservationSource/ReservationDestination move Amount on the reserve
	// dimension when both are set.
	ReservationSource      *uuid.UUID
	ReservationDestination *uuid.UUID
	// ReservationHorizon tags how far into the future this entry's
	// reservation is meant to reach.
	ReservationHorizon *time.Time
	Description        string
}

// HasReservation reports whether the entry carries a reservation pair.
func (e LedgerEntry) HasReservation() bool {
	return e.ReservationSource != nil && e.ReservationDestination != nil
}

// Mutation is the per-account effect of one or more ledger entries.
type Mutation struct {
	Payment     decimal.Decimal
	Reservation decimal.Decimal
	Withdrawal  decimal.Decimal
}

// Add returns the element-wise sum of two mutations.
func (m Mutation) Add(o Mutation) Mutation {
	return Mutation{
		Payment:     m.Payment.Add(o.Payment),
		Reservation: m.Reservation.Add(o.Reservation),
		Withdrawal:  m.Withdrawal.Add(o.Withdrawal),
	}
}

// Apply folds the entry into per-account mutations: the payment subtracts
// from the source and adds to the destination, a reservation pair does the
// same on the reserve dimension, and a withdrawal counts against the source
// pot's withdrawn total.
func (e LedgerEntry) Apply(mutations map[uuid.UUID]Mutation) {
	src := mutations[e.Source]
	src.Payment = src.Payment.Sub(e.Amount)
	if e.Kind == KindWithdrawal {
		src.Withdrawal = src.Withdrawal.Add(e.Amount)
	}
	mutations[e.Source] = src

	dst := mutations[e.Destination]
	dst.Payment = dst.Payment.Add(e.Amount)
	mutations[e.Destination] = dst

	if e.HasReservation() {
		rs := mutations[*e.ReservationSource]
		rs.Reservation = rs.Reservation.Sub(e.Amount)
		mutations[*e.ReservationSource] = rs

		rd := mutations[*e.ReservationDestination]
		rd.Reservation = rd.Reservation.Add(e.Amount)
		mutations[*e.ReservationDestination] = rd
	}
}

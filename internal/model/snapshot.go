package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the per-account state persisted when a period closes.
// Opening* fields are the state inherited at period start; Payment,
// Reservation, Withdrawal and ArrearsAccrued are the period's activity
// totals; Correction carries retroactive amendments. Snapshots are immutable
// once the period leaves OPEN, except for corrections.
type BalanceSnapshot struct {
	ID      uuid.UUID
	Period  uuid.UUID
	Account uuid.UUID

	OpeningBalance   decimal.Decimal
	OpeningReserved  decimal.Decimal
	OpeningWithdrawn decimal.Decimal
	OpeningArrears   decimal.Decimal

	Payment        decimal.Decimal
	Reservation    decimal.Decimal
	Withdrawal     decimal.Decimal
	ArrearsAccrued decimal.Decimal
	Correction     decimal.Decimal
}

// Balances is the inheritable per-account state at a period boundary.
type Balances struct {
	Balance   decimal.Decimal
	Reserved  decimal.Decimal
	Withdrawn decimal.Decimal
	Arrears   decimal.Decimal
}

// Closing returns what the next period inherits from this snapshot.
func (s BalanceSnapshot) Closing() Balances {
	return Balances{
		Balance:   s.OpeningBalance.Add(s.Payment).Add(s.Correction),
		Reserved:  s.OpeningReserved.Add(s.Reservation).Sub(s.Payment),
		Withdrawn: s.OpeningWithdrawn.Add(s.Withdrawal).Add(s.Payment),
		Arrears:   s.OpeningArrears.Add(s.ArrearsAccrued),
	}
}

// PotBalance is the reserve still sitting in a savings pot: reservations in
// plus corrections, minus what was withdrawn, minus what was paid out.
func (s BalanceSnapshot) PotBalance() decimal.Decimal {
	reserved := s.OpeningReserved.Add(s.Reservation).Add(s.Correction)
	withdrawn := s.OpeningWithdrawn.Add(s.Withdrawal)
	return reserved.Sub(withdrawn).Sub(s.Payment)
}

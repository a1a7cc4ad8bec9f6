package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidationError describes a single invariant violation on a ledger entry.
type ValidationError struct {
	Invariant   int
	EntryID     uuid.UUID
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.EntryID, e.Description)
}

var validKinds = map[EntryKind]bool{
	KindIncome:     true,
	KindExpense:    true,
	KindRepayment:  true,
	KindSaving:     true,
	KindWithdrawal: true,
	KindTransfer:   true,
	KindCorrection: true,
}

// ValidateEntries enforces 4 invariants on a set of ledger entries.
func ValidateEntries(entries []LedgerEntry) []ValidationError {
	var errs []ValidationError

	two := decimal.NewFromInt(100)
	for _, e := range entries {
		// Invariant 1: money moves between two distinct accounts.
		if e.Source == e.Destination {
			errs = append(errs, ValidationError{
				Invariant:   1,
				EntryID:     e.ID,
				Description: "source and destination are the same account",
			})
		}

		// Invariant 2: exact decimals, no more than 2 decimal places.
		if !e.Amount.Mul(two).Equal(e.Amount.Mul(two).Floor()) {
			errs = append(errs, ValidationError{
				Invariant:   2,
				EntryID:     e.ID,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", e.Amount),
			})
		}

		// Invariant 3: reservation pairs come whole or not at all.
		if (e.ReservationSource == nil) != (e.ReservationDestination == nil) {
			errs = append(errs, ValidationError{
				Invariant:   3,
				EntryID:     e.ID,
				Description: "reservation pair is incomplete",
			})
		}

		// Invariant 4: known entry kind.
		if !validKinds[e.Kind] {
			errs = append(errs, ValidationError{
				Invariant:   4,
				EntryID:     e.ID,
				Description: fmt.Sprintf("unknown entry kind %q", e.Kind),
			})
		}
	}

	return errs
}

package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGroupKindViews(t *testing.T) {
	assert.True(t, GroupChecking.OnBalanceSheet())
	assert.True(t, GroupSavingsPot.OnBalanceSheet())
	assert.False(t, GroupExpense.OnBalanceSheet())
	assert.False(t, GroupIncome.OnBalanceSheet())

	assert.True(t, GroupChecking.Liquid())
	assert.True(t, GroupCash.Liquid())
	assert.False(t, GroupSavingsAccount.Liquid())
	assert.False(t, GroupSavingsPot.Liquid(), "pot reserve is earmarked, not spendable")
}

func TestAccountExpectedIn(t *testing.T) {
	a := Account{}
	assert.True(t, a.ExpectedIn(time.March), "no month filter means every month")

	a.Months = []time.Month{time.January, time.July}
	assert.True(t, a.ExpectedIn(time.July))
	assert.False(t, a.ExpectedIn(time.March))
}

func TestAccountValidIn(t *testing.T) {
	periods := []Period{
		{ID: uuid.New(), Start: date(2023, 1, 1)},
		{ID: uuid.New(), Start: date(2023, 2, 1)},
		{ID: uuid.New(), Start: date(2023, 3, 1)},
	}

	a := Account{}
	assert.True(t, a.ValidIn(periods[0], periods), "unbounded account is always valid")

	a.FromPeriod = &periods[1].ID
	assert.False(t, a.ValidIn(periods[0], periods))
	assert.True(t, a.ValidIn(periods[1], periods))
	assert.True(t, a.ValidIn(periods[2], periods))

	a.ThroughPeriod = &periods[1].ID
	assert.True(t, a.ValidIn(periods[1], periods))
	assert.False(t, a.ValidIn(periods[2], periods))

	assert.False(t, a.ValidIn(Period{ID: uuid.New()}, periods), "unknown period is never valid")
}

func TestPeriodContainsAndDays(t *testing.T) {
	p := Period{Start: date(2023, 1, 1), End: date(2023, 1, 31)}
	assert.True(t, p.Contains(date(2023, 1, 1)))
	assert.True(t, p.Contains(date(2023, 1, 31)))
	assert.False(t, p.Contains(date(2023, 2, 1)))
	assert.False(t, p.Contains(date(2022, 12, 31)))
	assert.Equal(t, 31, p.Days())

	february := Period{Start: date(2023, 2, 1), End: date(2023, 2, 28)}
	assert.Equal(t, 28, february.Days())
}

func TestEntryApply(t *testing.T) {
	checking := uuid.New()
	groceries := uuid.New()

	mutations := make(map[uuid.UUID]Mutation)
	LedgerEntry{
		ID: uuid.New(), Date: date(2023, 1, 5), Amount: dec("80"),
		Source: checking, Destination: groceries, Kind: KindExpense,
	}.Apply(mutations)

	assert.True(t, mutations[checking].Payment.Equal(dec("-80")))
	assert.True(t, mutations[groceries].Payment.Equal(dec("80")))
	assert.True(t, mutations[checking].Reservation.IsZero())
	assert.True(t, mutations[checking].Withdrawal.IsZero())
}

func TestEntryApplyReservationPair(t *testing.T) {
	checking := uuid.New()
	pot := uuid.New()

	mutations := make(map[uuid.UUID]Mutation)
	LedgerEntry{
		ID: uuid.New(), Date: date(2023, 1, 5), Amount: dec("100"),
		Source: checking, Destination: pot, Kind: KindSaving,
		ReservationSource:      &checking,
		ReservationDestination: &pot,
	}.Apply(mutations)

	assert.True(t, mutations[checking].Reservation.Equal(dec("-100")))
	assert.True(t, mutations[pot].Reservation.Equal(dec("100")))
	assert.True(t, mutations[pot].Payment.Equal(dec("100")))
}

func TestEntryApplyWithdrawal(t *testing.T) {
	pot := uuid.New()
	checking := uuid.New()

	mutations := make(map[uuid.UUID]Mutation)
	LedgerEntry{
		ID: uuid.New(), Date: date(2023, 1, 5), Amount: dec("60"),
		Source: pot, Destination: checking, Kind: KindWithdrawal,
	}.Apply(mutations)

	assert.True(t, mutations[pot].Withdrawal.Equal(dec("60")))
	assert.True(t, mutations[pot].Payment.Equal(dec("-60")))
	assert.True(t, mutations[checking].Payment.Equal(dec("60")))
}

func TestSnapshotClosing(t *testing.T) {
	s := BalanceSnapshot{
		OpeningBalance:   dec("1000"),
		OpeningReserved:  dec("400"),
		OpeningWithdrawn: dec("100"),
		OpeningArrears:   dec("50"),
		Payment:          dec("-120"),
		Reservation:      dec("150"),
		Withdrawal:       dec("60"),
		ArrearsAccrued:   dec("-30"),
		Correction:       dec("5"),
	}

	closing := s.Closing()
	assert.True(t, closing.Balance.Equal(dec("885")), "got %s", closing.Balance)
	assert.True(t, closing.Reserved.Equal(dec("670")), "got %s", closing.Reserved)
	assert.True(t, closing.Withdrawn.Equal(dec("40")), "got %s", closing.Withdrawn)
	assert.True(t, closing.Arrears.Equal(dec("20")), "got %s", closing.Arrears)
}

func TestSnapshotPotBalance(t *testing.T) {
	s := BalanceSnapshot{
		OpeningReserved:  dec("400"),
		OpeningWithdrawn: dec("100"),
		Reservation:      dec("150"),
		Withdrawal:       dec("60"),
		Payment:          dec("-60"),
		Correction:       dec("10"),
	}
	// (400+150+10) - (100+60) - (-60) = 460
	assert.True(t, s.PotBalance().Equal(dec("460")), "got %s", s.PotBalance())
}

func validEntry() LedgerEntry {
	return LedgerEntry{
		ID:          uuid.New(),
		Date:        date(2023, 1, 5),
		Amount:      dec("12.50"),
		Source:      uuid.New(),
		Destination: uuid.New(),
		Kind:        KindExpense,
	}
}

func TestValidateEntries_Valid(t *testing.T) {
	assert.Empty(t, ValidateEntries([]LedgerEntry{validEntry(), validEntry()}))
}

func TestValidateEntries_SameSourceAndDestination(t *testing.T) {
	e := validEntry()
	e.Destination = e.Source

	errs := ValidateEntries([]LedgerEntry{e})
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Invariant)
	assert.Equal(t, e.ID, errs[0].EntryID)
}

func TestValidateEntries_TooManyDecimalPlaces(t *testing.T) {
	e := validEntry()
	e.Amount = dec("12.505")

	errs := ValidateEntries([]LedgerEntry{e})
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Invariant)
	assert.Contains(t, errs[0].Description, "12.505")
}

func TestValidateEntries_IncompleteReservationPair(t *testing.T) {
	src := uuid.New()
	e := validEntry()
	e.ReservationSource = &src

	errs := ValidateEntries([]LedgerEntry{e})
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Invariant)
}

func TestValidateEntries_UnknownKind(t *testing.T) {
	e := validEntry()
	e.Kind = "refund"

	errs := ValidateEntries([]LedgerEntry{e})
	require.Len(t, errs, 1)
	assert.Equal(t, 4, errs[0].Invariant)
}

func TestValidateEntries_CollectsAllViolations(t *testing.T) {
	e := validEntry()
	e.Destination = e.Source
	e.Amount = dec("0.001")
	e.Kind = "refund"

	errs := ValidateEntries([]LedgerEntry{e})
	assert.Len(t, errs, 3)
}

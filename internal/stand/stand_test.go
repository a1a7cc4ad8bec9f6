package stand

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/period"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
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

type fixture struct {
	mem       *store.Memory
	svc       *Service
	owner     uuid.UUID
	seed      model.Period
	january   model.Period
	checking  model.Account
	rent      model.Account
	groceries model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	owner := uuid.New()

	checkingGroup := model.AccountGroup{ID: uuid.New(), Owner: owner, Kind: model.GroupChecking, BudgetType: model.BudgetNone}
	fixedGroup := model.AccountGroup{ID: uuid.New(), Owner: owner, Kind: model.GroupExpense, BudgetType: model.BudgetFixed}
	continuousGroup := model.AccountGroup{ID: uuid.New(), Owner: owner, Kind: model.GroupExpense, BudgetType: model.BudgetContinuous}
	for _, g := range []model.AccountGroup{checkingGroup, fixedGroup, continuousGroup} {
		mem.AddGroup(g)
	}

	dueDay := 15
	checking := model.Account{ID: uuid.New(), Owner: owner, GroupID: checkingGroup.ID, Name: "checking"}
	rent := model.Account{ID: uuid.New(), Owner: owner, GroupID: fixedGroup.ID, Name: "rent",
		Rule: model.BudgetRule{Amount: dec("700"), Periodicity: model.PerMonth, DueDay: &dueDay}}
	groceries := model.Account{ID: uuid.New(), Owner: owner, GroupID: continuousGroup.ID, Name: "groceries",
		Rule: model.BudgetRule{Amount: dec("310"), Periodicity: model.PerMonth}}
	for _, a := range []model.Account{checking, rent, groceries} {
		mem.AddAccount(a)
	}

	seed := model.Period{ID: uuid.New(), Owner: owner,
		Start: date(2022, 12, 31), End: date(2022, 12, 31), Status: model.StatusArchived}
	january := model.Period{ID: uuid.New(), Owner: owner,
		Start: date(2023, 1, 1), End: date(2023, 1, 31), Status: model.StatusCurrent}
	require.NoError(t, mem.SavePeriod(seed))
	require.NoError(t, mem.SavePeriod(january))

	return &fixture{mem: mem, svc: NewService(mem), owner: owner,
		seed: seed, january: january, checking: checking, rent: rent, groceries: groceries}
}

func (f *fixture) pay(t *testing.T, day time.Time, amount string, dst uuid.UUID) {
	t.Helper()
	require.NoError(t, f.mem.SaveEntry(model.LedgerEntry{
		ID: uuid.New(), Owner: f.owner, Date: day,
		Amount: dec(amount), Source: f.checking.ID, Destination: dst, Kind: model.KindExpense,
	}))
}

func lineFor(t *testing.T, r Report, account uuid.UUID) Line {
	t.Helper()
	for _, l := range r.Lines {
		if l.Account.ID == account {
			return l
		}
	}
	t.Fatalf("no line for account %s", account)
	return Line{}
}

func TestAt_MidPeriodVariance(t *testing.T) {
	f := newFixture(t)
	f.pay(t, date(2023, 1, 14), "700", f.rent.ID)
	f.pay(t, date(2023, 1, 10), "120", f.groceries.ID)

	report, err := f.svc.At(f.owner, date(2023, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, f.january.ID, report.Period.ID)
	assert.Equal(t, date(2023, 1, 20), report.AsOf)
	require.Len(t, report.Lines, 3)

	rent := lineFor(t, report, f.rent.ID)
	assert.True(t, rent.Settled, "rent paid in full on the 14th")
	assert.True(t, rent.UnderDue.IsZero())
	assert.True(t, rent.Arrears.IsZero())

	groceries := lineFor(t, report, f.groceries.ID)
	assert.False(t, groceries.Settled)
	assert.True(t, groceries.Due.Equal(dec("200")), "20 of 31 days accrued, got %s", groceries.Due)
	assert.True(t, groceries.UnderDue.Equal(dec("80")))
	assert.True(t, groceries.RemainingThisMonth.Equal(dec("110")))

	checking := lineFor(t, report, f.checking.ID)
	assert.True(t, checking.MonthlyAmount.IsZero(), "unbudgeted accounts carry no expectation")
}

func TestAt_InheritsOpeningArrears(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mem.SaveSnapshot(model.BalanceSnapshot{
		ID: uuid.New(), Period: f.seed.ID, Account: f.rent.ID,
		ArrearsAccrued: dec("50"),
	}))
	f.pay(t, date(2023, 1, 14), "700", f.rent.ID)

	report, err := f.svc.At(f.owner, date(2023, 1, 20))
	require.NoError(t, err)

	rent := lineFor(t, report, f.rent.ID)
	assert.True(t, rent.Arrears.Equal(dec("50")), "old arrears survive a settled month, got %s", rent.Arrears)
}

func TestAt_SkipsAccountsNotValidInPeriod(t *testing.T) {
	f := newFixture(t)
	lapsed := model.Account{ID: uuid.New(), Owner: f.owner, GroupID: f.rent.GroupID, Name: "old-lease",
		Rule: f.rent.Rule, ThroughPeriod: &f.seed.ID}
	f.mem.AddAccount(lapsed)

	report, err := f.svc.At(f.owner, date(2023, 1, 20))
	require.NoError(t, err)
	require.Len(t, report.Lines, 3)
	for _, l := range report.Lines {
		assert.NotEqual(t, lapsed.ID, l.Account.ID)
	}
}

func TestAt_NoPeriodCoversDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.At(f.owner, date(2024, 6, 1))
	var noPeriod period.NoPeriodError
	require.ErrorAs(t, err, &noPeriod)
}

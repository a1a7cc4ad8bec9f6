package sweep

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huishoudboek-dev/huishoudboek/internal/model"
	"github.com/huishoudboek-dev/huishoudboek/internal/reconcile"
	"github.com/huishoudboek-dev/huishoudboek/internal/store"
	"github.com/huishoudboek-dev/huishoudboek/internal/sweeplog"
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

// addOwner gives the owner a checking account so the store knows them.
func addOwner(mem *store.Memory) uuid.UUID {
	owner := uuid.New()
	group := model.AccountGroup{ID: uuid.New(), Owner: owner, Kind: model.GroupChecking, BudgetType: model.BudgetNone}
	mem.AddGroup(group)
	mem.AddAccount(model.Account{ID: uuid.New(), Owner: owner, GroupID: group.ID, Name: "checking"})
	return owner
}

// breakReconciliation gives the owner a closed period whose savings totals
// diverge with no linked pot to carry the correction.
func breakReconciliation(t *testing.T, mem *store.Memory, owner uuid.UUID) {
	t.Helper()
	savingsGroup := model.AccountGroup{ID: uuid.New(), Owner: owner, Kind: model.GroupSavingsAccount, BudgetType: model.BudgetNone}
	mem.AddGroup(savingsGroup)
	savings := model.Account{ID: uuid.New(), Owner: owner, GroupID: savingsGroup.ID, Name: "savings"}
	mem.AddAccount(savings)

	closed := model.Period{ID: uuid.New(), Owner: owner,
		Start: date(2023, 1, 1), End: date(2023, 1, 31), Status: model.StatusClosed}
	require.NoError(t, mem.SavePeriod(closed))
	require.NoError(t, mem.SaveSnapshot(model.BalanceSnapshot{
		ID: uuid.New(), Period: closed.ID, Account: savings.ID,
		OpeningBalance: dec("500"),
	}))
}

func resultFor(t *testing.T, results []OwnerResult, owner uuid.UUID) OwnerResult {
	t.Helper()
	for _, r := range results {
		if r.Owner == owner {
			return r
		}
	}
	t.Fatalf("no result for owner %s", owner)
	return OwnerResult{}
}

func TestRun_AdvancesPeriodsAndReconciles(t *testing.T) {
	mem := store.NewMemory()
	owner := addOwner(mem)

	sweeper := NewSweeper(mem, 1, 2).WithClock(func() time.Time { return date(2023, 3, 10) })
	results, err := sweeper.Run()
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := resultFor(t, results, owner)
	require.NoError(t, res.Err)
	assert.Equal(t, "savings in balance at 0.00", res.Message)

	periods, err := mem.PeriodsFor(owner)
	require.NoError(t, err)
	require.NotEmpty(t, periods)
	current := periods[len(periods)-1]
	assert.Equal(t, model.StatusCurrent, current.Status)
	assert.True(t, current.Contains(date(2023, 3, 10)))
}

func TestRun_OneOwnersFailureDoesNotAbortOthers(t *testing.T) {
	mem := store.NewMemory()
	healthy := addOwner(mem)
	broken := addOwner(mem)
	breakReconciliation(t, mem, broken)

	sweeper := NewSweeper(mem, 1, 4).WithClock(func() time.Time { return date(2023, 3, 10) })
	results, err := sweeper.Run()
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NoError(t, resultFor(t, results, healthy).Err)

	brokenRes := resultFor(t, results, broken)
	require.Error(t, brokenRes.Err)
	var notFound reconcile.SavingsLinkNotFoundError
	assert.ErrorAs(t, brokenRes.Err, &notFound)

	// The failing owner still got their periods advanced before the
	// reconciliation step failed.
	periods, err := mem.PeriodsFor(broken)
	require.NoError(t, err)
	assert.True(t, periods[len(periods)-1].Contains(date(2023, 3, 10)))
}

func TestRun_SequentialWhenParallelismBelowOne(t *testing.T) {
	mem := store.NewMemory()
	for i := 0; i < 5; i++ {
		addOwner(mem)
	}

	sweeper := NewSweeper(mem, 1, 0).WithClock(func() time.Time { return date(2023, 3, 10) })
	results, err := sweeper.Run()
	require.NoError(t, err)
	assert.Len(t, results, 5)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestLog_AppendsOneRowPerOwner(t *testing.T) {
	dir := t.TempDir()
	owner := uuid.New()
	at := date(2023, 3, 10)

	require.NoError(t, Log(dir, at, []OwnerResult{
		{Owner: owner, Message: "savings in balance at 0.00"},
		{Owner: uuid.New(), Err: assert.AnError},
	}))

	entries, err := sweeplog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, owner.String(), entries[0].Owner)
	assert.Equal(t, "sweep", entries[0].Action)
	assert.Equal(t, "savings in balance at 0.00", entries[0].Details)
	assert.Empty(t, entries[0].Err)
	assert.Equal(t, assert.AnError.Error(), entries[1].Err)
}

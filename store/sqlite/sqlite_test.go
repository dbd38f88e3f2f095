package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var testStart = time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

func seedPlan(t *testing.T, store *sqlite.Store) equb.SavingsPlan {
	t.Helper()
	ctx := context.Background()

	member := equb.Member{ID: "m-1", Name: "Abebe", Type: equb.MemberRegular}
	require.NoError(t, store.SaveMember(ctx, member))

	plan := equb.NewSavingsPlan("p-1", member.ID, 0, decimal.NewFromInt(5000), testStart)
	require.NoError(t, store.SavePlan(ctx, plan))
	return plan
}

func collection(plan equb.SavingsPlan, id string, week, day int) equb.DailyCollection {
	return equb.DailyCollection{
		ID:         equb.CollectionID(id),
		PlanID:     plan.ID,
		Date:       testStart.AddDate(0, 0, (week-1)*7+day-1),
		Week:       week,
		Day:        day,
		Amount:     decimal.NewFromInt(5000),
		Source:     "cash",
		RecordedAt: time.Now().UTC(),
	}
}

// =============================================================================
// MIGRATIONS
// =============================================================================

func TestMigrations_IdempotentOnReopen(t *testing.T) {
	// GIVEN: A database already migrated and populated
	// WHEN: Reopening it (migrations rerun)
	// THEN: Opening succeeds and the data is intact
	path := filepath.Join(t.TempDir(), "equb.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	plan := seedPlan(t, store)
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.GetPlan(context.Background(), plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.DailyAmount.Equal(decimal.NewFromInt(5000)))
}

// =============================================================================
// DIRECTORY ROUND-TRIPS
// =============================================================================

func TestPlan_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	plan.CollectionDays = []int{1, 4, 7}
	plan.GraceDays = 2
	plan.DailyAmount = decimal.RequireFromString("1250.50")
	require.NoError(t, store.SavePlan(ctx, plan))

	got, err := store.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, plan.MemberID, got.MemberID)
	assert.True(t, got.DailyAmount.Equal(decimal.RequireFromString("1250.50")))
	assert.True(t, got.StartDate.Equal(testStart))
	assert.True(t, got.EndDate.Equal(testStart.AddDate(0, 0, equb.CycleDays)))
	assert.Equal(t, []int{1, 4, 7}, got.CollectionDays)
	assert.Equal(t, 2, got.GraceDays)
	assert.Equal(t, equb.PlanActive, got.Status)
}

func TestMembers_ArchivedFiltered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMember(ctx, equb.Member{ID: "m-a", Name: "Active"}))
	require.NoError(t, store.SaveMember(ctx, equb.Member{ID: "m-b", Name: "Gone", Archived: true}))

	active, err := store.ListMembers(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, equb.MemberID("m-a"), active[0].ID)

	all, err := store.ListMembers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// COLLECTION UNIQUENESS (partial index backstop)
// =============================================================================

func TestInsertCollection_DuplicateActiveSlot_Rejected(t *testing.T) {
	// The engine checks first, but the partial unique index must hold even
	// when rows are inserted directly.
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	require.NoError(t, store.InsertCollection(ctx, collection(plan, "c-1", 1, 1)))

	err := store.InsertCollection(ctx, collection(plan, "c-2", 1, 1))
	require.Error(t, err)

	var dup *equb.DuplicatePaymentError
	assert.True(t, errors.As(err, &dup))
}

func TestInsertCollection_CancelledSlot_Reopens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	first := collection(plan, "c-1", 1, 1)
	require.NoError(t, store.InsertCollection(ctx, first))

	first.Cancelled = true
	first.CancelReason = "wrong plan"
	require.NoError(t, store.UpdateCollection(ctx, first))

	require.NoError(t, store.InsertCollection(ctx, collection(plan, "c-2", 1, 1)))

	active, err := store.ActiveCollection(ctx, plan.ID, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, equb.CollectionID("c-2"), active.ID)
}

func TestSumCollections_ExcludesCancelled(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	require.NoError(t, store.InsertCollection(ctx, collection(plan, "c-1", 1, 1)))
	require.NoError(t, store.InsertCollection(ctx, collection(plan, "c-2", 1, 2)))

	cancelled := collection(plan, "c-2", 1, 2)
	cancelled.Cancelled = true
	require.NoError(t, store.UpdateCollection(ctx, cancelled))

	sum, err := store.SumCollections(ctx, 1)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(5000)))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollbackOnError(t *testing.T) {
	// GIVEN: A transaction inserting a collection then failing
	// WHEN: The transaction returns an error
	// THEN: No partial write is visible
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s equb.Store) error {
		if err := s.InsertCollection(ctx, collection(plan, "c-1", 1, 1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetCollection(ctx, "c-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWithTx_CommitOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	err := store.WithTx(ctx, func(s equb.Store) error {
		return s.InsertCollection(ctx, collection(plan, "c-1", 1, 1))
	})
	require.NoError(t, err)

	got, err := store.GetCollection(ctx, "c-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Week)
}

// =============================================================================
// ARREARS PERSISTENCE
// =============================================================================

func TestDailyArrear_UpsertKeepsExistingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)

	arrear := equb.DailyArrear{
		ID: "a-1", PlanID: plan.ID, Week: 1, Day: 1, Date: testStart,
		AmountDue: decimal.NewFromInt(5000), PaidAmount: decimal.NewFromInt(2000),
		Remaining: decimal.NewFromInt(3000),
	}
	require.NoError(t, store.UpsertDailyArrear(ctx, arrear))

	// A second derivation for the same slot must not reset the payment.
	fresh := arrear
	fresh.ID = "a-2"
	fresh.PaidAmount = decimal.Zero
	fresh.Remaining = decimal.NewFromInt(5000)
	require.NoError(t, store.UpsertDailyArrear(ctx, fresh))

	got, err := store.GetDailyArrear(ctx, plan.ID, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a-1", got.ID)
	assert.True(t, got.Remaining.Equal(decimal.NewFromInt(3000)))
}

func TestAccumulated_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	plan := seedPlan(t, store)
	now := time.Now().UTC()

	acc := equb.AccumulatedArrears{
		PlanID: plan.ID, LastWeekNumber: 3,
		TotalArrears: decimal.NewFromInt(30000),
		PaidAmount:   decimal.NewFromInt(2000),
		Remaining:    decimal.NewFromInt(28000),
		CreatedAt:    now, UpdatedAt: now,
	}
	require.NoError(t, store.SaveAccumulated(ctx, acc))

	got, err := store.GetAccumulated(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.LastWeekNumber)
	assert.True(t, got.Remaining.Equal(decimal.NewFromInt(28000)))

	// Upsert path: the single row per plan is replaced, not duplicated.
	acc.LastWeekNumber = 4
	require.NoError(t, store.SaveAccumulated(ctx, acc))
	all, err := store.ListAccumulated(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 4, all[0].LastWeekNumber)
}

// =============================================================================
// RECONCILIATION UNIQUENESS
// =============================================================================

func TestInsertReconciliation_DuplicateWeek_Rejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := equb.WeeklyReconciliation{
		ID: "r-1", Week: 1, WeekStart: testStart, WeekEnd: testStart.AddDate(0, 0, 6),
		Expected: decimal.NewFromInt(35000), Actual: decimal.NewFromInt(35000),
		Difference: decimal.Zero, Status: equb.ReconciliationPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.InsertReconciliation(ctx, rec))

	rec.ID = "r-2"
	err := store.InsertReconciliation(ctx, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, equb.ErrAlreadyReconciled)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestCycleStartDate_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetCycleStartDate(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SetCycleStartDate(ctx, testStart))

	got, err = store.GetCycleStartDate(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(testStart))

	// Overwrite wins.
	later := testStart.AddDate(0, 0, 7)
	require.NoError(t, store.SetCycleStartDate(ctx, later))
	got, err = store.GetCycleStartDate(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(later))
}

package equb_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/equb/store/memory"
)

func newTestAccumulator(t *testing.T) (*equb.Accumulator, *equb.ArrearsCalculator, *memory.Memory, equb.SavingsPlan) {
	t.Helper()
	store := memory.New()
	plan := seedPlan(t, store, 5000)
	cal := equb.NewCalendar(testAnchor)
	return equb.NewAccumulator(store, cal), equb.NewArrearsCalculator(store, cal), store, plan
}

// =============================================================================
// ROLLOVER
// =============================================================================

func TestRollover_FoldsUnpaidArrears(t *testing.T) {
	// GIVEN: Week 1 closed with 3 unpaid days of 5000 each
	// WHEN: Rolling the week into the accumulated account
	// THEN: The account opens at 15000 with the high-water mark at week 1
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	for day := 1; day <= 4; day++ {
		paySlot(t, store, plan, 1, day)
	}
	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)

	account, err := acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, account.LastWeekNumber)
	assert.True(t, account.TotalArrears.Equal(decimal.NewFromInt(15000)))
	assert.True(t, account.Remaining.Equal(decimal.NewFromInt(15000)))
	assert.True(t, account.PaidAmount.IsZero())
	assert.False(t, account.IsPaid)
}

func TestRollover_SameWeekTwice_Rejected(t *testing.T) {
	acc, calc, _, plan := newTestAccumulator(t)
	ctx := context.Background()

	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)
	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)

	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, equb.ErrAlreadyRolled)

	var rolled *equb.AlreadyRolledError
	require.ErrorAs(t, err, &rolled)
	assert.Equal(t, 1, rolled.LastWeek)
}

func TestRollover_EarlierWeek_Rejected(t *testing.T) {
	// The high-water mark only moves forward.
	acc, calc, _, plan := newTestAccumulator(t)
	ctx := context.Background()

	for week := 1; week <= 3; week++ {
		_, err := calc.CloseWeek(ctx, week)
		require.NoError(t, err)
	}
	_, err := acc.Rollover(ctx, plan.ID, 3)
	require.NoError(t, err)

	_, err = acc.Rollover(ctx, plan.ID, 2)
	assert.ErrorIs(t, err, equb.ErrAlreadyRolled)
}

func TestRollover_AccumulatesAcrossWeeks(t *testing.T) {
	acc, calc, _, plan := newTestAccumulator(t)
	ctx := context.Background()

	for week := 1; week <= 2; week++ {
		_, err := calc.CloseWeek(ctx, week)
		require.NoError(t, err)
		_, err = acc.Rollover(ctx, plan.ID, week)
		require.NoError(t, err)
	}

	account, err := acc.Statement(ctx, plan.ID)
	require.NoError(t, err)
	require.NotNil(t, account.Accumulated)
	assert.True(t, account.Accumulated.TotalArrears.Equal(decimal.NewFromInt(70000)))
	assert.Equal(t, 2, account.Accumulated.LastWeekNumber)
}

func TestRollover_CleanWeek_NoAccountCreated(t *testing.T) {
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	for day := 1; day <= 7; day++ {
		paySlot(t, store, plan, 1, day)
	}
	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)

	account, err := acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestRolloverAll_SkipsAlreadyRolledPlans(t *testing.T) {
	// GIVEN: Two plans, one already rolled for the week
	// WHEN: Rolling all plans
	// THEN: The batch succeeds and folds only the other plan
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	other := equb.NewSavingsPlan("p-other", "m-abebe", 1, decimal.NewFromInt(1000), testAnchor)
	require.NoError(t, store.SavePlan(ctx, other))

	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)
	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)

	folded, err := acc.RolloverAll(ctx, 1)
	require.NoError(t, err)
	require.Len(t, folded, 1)
	assert.Equal(t, other.ID, folded[0].PlanID)
	assert.True(t, folded[0].TotalArrears.Equal(decimal.NewFromInt(7000)))
}

// =============================================================================
// ARREAR PAYMENTS
// =============================================================================

func TestRecordArrearPayment_FullScenario(t *testing.T) {
	// GIVEN: A member paying 5000/day who covered only day 1 of week 1
	// WHEN: The week is closed, rolled over, and 2000 is paid against it
	// THEN: Remaining drops 30000 -> 28000 with matching ledger and history rows
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	paySlot(t, store, plan, 1, 1)
	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)
	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)

	account, err := acc.RecordArrearPayment(ctx, equb.ArrearPaymentInput{
		PlanID:     plan.ID,
		Amount:     decimal.NewFromInt(2000),
		RecorderID: "m-collector",
		PaidAt:     testAnchor.AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	assert.True(t, account.TotalArrears.Equal(decimal.NewFromInt(30000)))
	assert.True(t, account.PaidAmount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, account.Remaining.Equal(decimal.NewFromInt(28000)))

	payments, err := store.ListArrearPayments(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 2, payments[0].Week)
	assert.Equal(t, 1, payments[0].Day)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(2000)))

	history, err := store.ListPaymentHistory(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].RemainingBefore.Equal(decimal.NewFromInt(30000)))
	assert.True(t, history[0].RemainingAfter.Equal(decimal.NewFromInt(28000)))
}

func TestRecordArrearPayment_SettlesAccount(t *testing.T) {
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	paySlot(t, store, plan, 1, 1)
	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)
	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)

	account, err := acc.RecordArrearPayment(ctx, equb.ArrearPaymentInput{
		PlanID: plan.ID, Amount: decimal.NewFromInt(30000),
	})
	require.NoError(t, err)
	assert.True(t, account.IsPaid)
	assert.True(t, account.Remaining.IsZero())
}

func TestRecordArrearPayment_OverRemaining_Rejected(t *testing.T) {
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	paySlot(t, store, plan, 1, 1)
	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)
	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)

	_, err = acc.RecordArrearPayment(ctx, equb.ArrearPaymentInput{
		PlanID: plan.ID, Amount: decimal.NewFromInt(30001),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, equb.ErrInvalidAmount)

	var invalid *equb.InvalidAmountError
	require.ErrorAs(t, err, &invalid)
	require.NotNil(t, invalid.Limit)
	assert.True(t, invalid.Limit.Equal(decimal.NewFromInt(30000)))

	// A failed payment leaves no trace in either ledger.
	payments, err := store.ListArrearPayments(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	history, err := store.ListPaymentHistory(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordArrearPayment_NoAccount_Rejected(t *testing.T) {
	acc, _, _, plan := newTestAccumulator(t)

	_, err := acc.RecordArrearPayment(context.Background(), equb.ArrearPaymentInput{
		PlanID: plan.ID, Amount: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, equb.ErrNoAccumulated)
}

func TestStatement_BundlesAccountAndLedgers(t *testing.T) {
	acc, calc, store, plan := newTestAccumulator(t)
	ctx := context.Background()

	paySlot(t, store, plan, 1, 1)
	_, err := calc.CloseWeek(ctx, 1)
	require.NoError(t, err)
	_, err = acc.Rollover(ctx, plan.ID, 1)
	require.NoError(t, err)
	_, err = acc.RecordArrearPayment(ctx, equb.ArrearPaymentInput{
		PlanID: plan.ID, Amount: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)

	stmt, err := acc.Statement(ctx, plan.ID)
	require.NoError(t, err)

	assert.Equal(t, plan.ID, stmt.Plan.ID)
	require.NotNil(t, stmt.Accumulated)
	assert.True(t, stmt.Accumulated.Remaining.Equal(decimal.NewFromInt(20000)))
	assert.Len(t, stmt.Payments, 1)
	assert.Len(t, stmt.History, 1)

	// Ledger invariant: total = paid + remaining.
	sum := stmt.Accumulated.PaidAmount.Add(stmt.Accumulated.Remaining)
	assert.True(t, sum.Equal(stmt.Accumulated.TotalArrears))
}

func TestStatement_UnknownPlan_NotFound(t *testing.T) {
	acc, _, _, _ := newTestAccumulator(t)

	_, err := acc.Statement(context.Background(), "no-such-plan")
	assert.ErrorIs(t, err, equb.ErrPlanNotFound)
}

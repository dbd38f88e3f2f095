package vault_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hibret/equb-engine/equb"
	"github.com/hibret/equb-engine/equb/store/memory"
	"github.com/hibret/equb-engine/vault"
)

func TestLedger_DepositAndWithdrawal(t *testing.T) {
	// GIVEN: Two deposits and a withdrawal
	// WHEN: Reading the balance
	// THEN: Balance = deposits - withdrawals
	ledger := vault.NewLedger(memory.New())
	ctx := context.Background()

	_, err := ledger.RecordDeposit(ctx, 1, decimal.NewFromInt(35000), "m-chair", "week 1 takings")
	require.NoError(t, err)
	_, err = ledger.RecordDeposit(ctx, 2, decimal.NewFromInt(32000), "m-chair", "week 2 takings")
	require.NoError(t, err)
	_, err = ledger.RecordWithdrawal(ctx, decimal.NewFromInt(10000), "m-chair", "payout")
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(57000)), "got %s", balance)
}

func TestLedger_WeeklyDeposit_ScopedToWeek(t *testing.T) {
	ledger := vault.NewLedger(memory.New())
	ctx := context.Background()

	_, err := ledger.RecordDeposit(ctx, 1, decimal.NewFromInt(20000), "m-chair", "")
	require.NoError(t, err)
	_, err = ledger.RecordDeposit(ctx, 1, decimal.NewFromInt(15000), "m-chair", "")
	require.NoError(t, err)
	_, err = ledger.RecordDeposit(ctx, 2, decimal.NewFromInt(9000), "m-chair", "")
	require.NoError(t, err)

	week1, err := ledger.WeeklyDeposit(ctx, 1)
	require.NoError(t, err)
	assert.True(t, week1.Equal(decimal.NewFromInt(35000)))

	week3, err := ledger.WeeklyDeposit(ctx, 3)
	require.NoError(t, err)
	assert.True(t, week3.IsZero())
}

func TestLedger_NonPositiveAmount_Rejected(t *testing.T) {
	ledger := vault.NewLedger(memory.New())
	ctx := context.Background()

	_, err := ledger.RecordDeposit(ctx, 1, decimal.Zero, "m-chair", "")
	assert.ErrorIs(t, err, equb.ErrInvalidAmount)

	_, err = ledger.RecordWithdrawal(ctx, decimal.NewFromInt(-5), "m-chair", "")
	assert.ErrorIs(t, err, equb.ErrInvalidAmount)
}

func TestLedger_EntriesCarryMetadata(t *testing.T) {
	store := memory.New()
	ledger := vault.NewLedger(store)
	ctx := context.Background()

	entry, err := ledger.RecordDeposit(ctx, 4, decimal.NewFromInt(500), "m-chair", "late drop")
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, vault.Deposit, entry.Type)
	assert.Equal(t, 4, entry.Week)
	assert.Equal(t, equb.MemberID("m-chair"), entry.RecorderID)
	assert.Equal(t, "late drop", entry.Notes)
	assert.False(t, entry.RecordedAt.IsZero())

	entries, err := store.ListVaultEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

/*
Package vault is the association's cash ledger.

PURPOSE:
  Records cash deposits and withdrawals and answers two questions the
  accounting core asks: "how much was deposited for week N" (consumed by
  weekly reconciliation as the actual amount) and "what is the running
  balance" (on demand, for reports).

The ledger is append-only; a mistaken entry is corrected with an opposing
entry, never edited.
*/
package vault

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hibret/equb-engine/equb"
)

// EntryType distinguishes cash in from cash out.
type EntryType string

const (
	Deposit    EntryType = "deposit"
	Withdrawal EntryType = "withdrawal"
)

// Entry is one cash movement. Week tags deposits with the cycle week they
// cover so reconciliation can total them.
type Entry struct {
	ID         string
	Type       EntryType
	Week       int
	Amount     decimal.Decimal
	Notes      string
	RecorderID equb.MemberID
	RecordedAt time.Time
}

// Store persists vault entries.
type Store interface {
	InsertVaultEntry(ctx context.Context, e Entry) error
	ListVaultEntries(ctx context.Context) ([]Entry, error)

	// WeeklyDepositTotal sums deposits tagged with the given week.
	WeeklyDepositTotal(ctx context.Context, week int) (decimal.Decimal, error)

	// VaultBalance returns deposits minus withdrawals over the whole ledger.
	VaultBalance(ctx context.Context) (decimal.Decimal, error)
}

// Ledger wraps a Store with validation.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordDeposit books cash in for a cycle week.
func (l *Ledger) RecordDeposit(ctx context.Context, week int, amount decimal.Decimal, recorder equb.MemberID, notes string) (*Entry, error) {
	return l.record(ctx, Deposit, week, amount, recorder, notes)
}

// RecordWithdrawal books cash out. Withdrawals are not tied to a week.
func (l *Ledger) RecordWithdrawal(ctx context.Context, amount decimal.Decimal, recorder equb.MemberID, notes string) (*Entry, error) {
	return l.record(ctx, Withdrawal, 0, amount, recorder, notes)
}

func (l *Ledger) record(ctx context.Context, typ EntryType, week int, amount decimal.Decimal, recorder equb.MemberID, notes string) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, &equb.InvalidAmountError{Op: "vault " + string(typ), Amount: amount}
	}
	e := Entry{
		ID:         uuid.NewString(),
		Type:       typ,
		Week:       week,
		Amount:     amount,
		Notes:      notes,
		RecorderID: recorder,
		RecordedAt: time.Now().UTC(),
	}
	if err := l.store.InsertVaultEntry(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WeeklyDeposit returns the actual cash total for a week, the figure
// reconciliation compares against expectation.
func (l *Ledger) WeeklyDeposit(ctx context.Context, week int) (decimal.Decimal, error) {
	return l.store.WeeklyDepositTotal(ctx, week)
}

// Balance returns the running vault balance.
func (l *Ledger) Balance(ctx context.Context) (decimal.Decimal, error) {
	return l.store.VaultBalance(ctx)
}

/*
store.go - Persistence interface for the accounting core

PURPOSE:
  Defines the boundary between the engine and the database. Implementations
  must give readers a consistent snapshot relative to in-flight writes
  (the store is accessed by exactly one logical transaction at a time).

ATOMICITY CONTRACT:
  Every mutating sequence that touches more than one entity runs inside
  TxStore.WithTx: recording a collection (duplicate check + insert), closing
  a week's arrears into the accumulator, and recording an arrear payment
  (which writes BOTH payment ledgers). A partial write is a correctness bug,
  not a degraded state.

SOFT-DELETE CONTRACT:
  No entity is ever hard-deleted. Collections carry a cancellation flag,
  plans an archived status; arrears and payment history are append-only.

IMPLEMENTATIONS:
  - store/sqlite: production store (database/sql + go-sqlite3)
  - equb/store/memory: in-memory store for tests

SEE ALSO:
  - types.go: The entities persisted here
  - store/sqlite/migrate.go: Forward-only schema evolution
*/
package equb

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Persistence boundary
// =============================================================================

// Store is the full persistence surface the engine depends on.
type Store interface {
	DirectoryStore
	CollectionStore
	ArrearStore
	ReconciliationStore
}

// TxStore wraps Store with transaction support. If fn returns an error the
// transaction is rolled back; otherwise it is committed.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// DIRECTORY - Members and plans
// =============================================================================

// DirectoryStore provides read/write access to members and savings plans.
// The engine itself only reads plans; writes serve the enrollment surface.
type DirectoryStore interface {
	SaveMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id MemberID) (*Member, error)
	ListMembers(ctx context.Context, includeArchived bool) ([]Member, error)

	SavePlan(ctx context.Context, p SavingsPlan) error
	GetPlan(ctx context.Context, id PlanID) (*SavingsPlan, error)
	GetActivePlans(ctx context.Context) ([]SavingsPlan, error)
}

// =============================================================================
// COLLECTIONS
// =============================================================================

type CollectionStore interface {
	InsertCollection(ctx context.Context, c DailyCollection) error
	GetCollection(ctx context.Context, id CollectionID) (*DailyCollection, error)

	// ActiveCollection returns the non-cancelled, positive-amount record for
	// the slot, or nil if the slot is open.
	ActiveCollection(ctx context.Context, planID PlanID, week, day int) (*DailyCollection, error)

	// UpdateCollection persists cancellation state. Amount and slot fields
	// are immutable after insert.
	UpdateCollection(ctx context.Context, c DailyCollection) error

	ListCollections(ctx context.Context, planID PlanID) ([]DailyCollection, error)

	// SumCollections totals active collection amounts for a week across all plans.
	SumCollections(ctx context.Context, week int) (decimal.Decimal, error)
}

// =============================================================================
// ARREARS - daily detail, accumulated balance, payment ledgers
// =============================================================================

type ArrearStore interface {
	// UpsertDailyArrear creates the row for (plan, week, day) or leaves an
	// existing one in place. Rows are never deleted.
	UpsertDailyArrear(ctx context.Context, a DailyArrear) error
	GetDailyArrear(ctx context.Context, planID PlanID, week, day int) (*DailyArrear, error)
	UpdateDailyArrear(ctx context.Context, a DailyArrear) error
	ListDailyArrears(ctx context.Context, planID PlanID, week int) ([]DailyArrear, error)

	GetAccumulated(ctx context.Context, planID PlanID) (*AccumulatedArrears, error)
	SaveAccumulated(ctx context.Context, a AccumulatedArrears) error
	ListAccumulated(ctx context.Context) ([]AccumulatedArrears, error)

	InsertArrearPayment(ctx context.Context, p AccumulatedArrearPayment) error
	ListArrearPayments(ctx context.Context, planID PlanID) ([]AccumulatedArrearPayment, error)

	// SumArrearPayments totals accumulated-arrear payments recorded for a week.
	SumArrearPayments(ctx context.Context, week int) (decimal.Decimal, error)

	InsertPaymentHistory(ctx context.Context, h WeeklyArrearPaymentHistory) error
	ListPaymentHistory(ctx context.Context, planID PlanID) ([]WeeklyArrearPaymentHistory, error)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

type ReconciliationStore interface {
	InsertReconciliation(ctx context.Context, r WeeklyReconciliation) error
	GetReconciliation(ctx context.Context, week int) (*WeeklyReconciliation, error)

	// UpdateReconciliation persists status and notes only; the amounts are
	// immutable after creation.
	UpdateReconciliation(ctx context.Context, r WeeklyReconciliation) error
	ListReconciliations(ctx context.Context) ([]WeeklyReconciliation, error)
}

/*
types.go - Persisted entities of the accounting core

PURPOSE:
  The field-level contract with the persistent store. Every entity here is
  created/updated through the engine components; none are ever hard-deleted.
  Collections are soft-cancelled, plans are archived, arrears and payment
  history are append-only audit records.

KEY ENTITIES:
  SavingsPlan              A member's daily-contribution commitment
  DailyCollection          One actual payment for a (plan, week, day) slot
  DailyArrear              An unpaid due day, per (plan, week, day)
  AccumulatedArrears       The single running arrears balance per plan
  AccumulatedArrearPayment Append-only payment toward the accumulated balance
  WeeklyArrearPaymentHistory Parallel audit trail with before/after balances
  WeeklyReconciliation     Expected-vs-actual cash comparison, one per week

SEE ALSO:
  - store.go: Persistence interfaces over these entities
  - errors.go: Invariants enforced when mutating them
*/
package equb

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type PlanID string
type CollectionID string

// =============================================================================
// MEMBERS (directory)
// =============================================================================

type MemberType string

const (
	MemberRegular   MemberType = "regular"
	MemberCollector MemberType = "collector"
)

// Member is a directory record. Members are archived, never removed.
type Member struct {
	ID        MemberID
	Name      string
	Phone     string
	Type      MemberType
	Archived  bool
	CreatedAt time.Time
}

// =============================================================================
// SAVINGS PLAN
// =============================================================================

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanArchived  PlanStatus = "archived"
)

// SavingsPlan is one member's commitment to a fixed daily contribution over
// the cycle. A member can hold several plans in a cycle, distinguished by
// SequenceNo. Plans are archived on exit, never physically removed.
type SavingsPlan struct {
	ID          PlanID
	MemberID    MemberID
	SequenceNo  int
	DailyAmount decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time // StartDate + 182 days
	TotalAmount decimal.Decimal
	Status      PlanStatus

	// CollectionDays restricts which day numbers (1-7) the plan is collected
	// on. Empty means every day. Supports weekly instead of daily collectors.
	CollectionDays []int

	// GraceDays exempts the first N calendar days of the plan from being due.
	GraceDays int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSavingsPlan derives the end date and total amount from the daily amount
// and start date.
func NewSavingsPlan(id PlanID, memberID MemberID, seq int, daily decimal.Decimal, start time.Time) SavingsPlan {
	start = midnightUTC(start)
	return SavingsPlan{
		ID:          id,
		MemberID:    memberID,
		SequenceNo:  seq,
		DailyAmount: daily,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, CycleDays),
		TotalAmount: daily.Mul(decimal.NewFromInt(CycleDays)),
		Status:      PlanActive,
	}
}

// CollectsOn reports whether the plan is collected on the given day number.
// An empty day set means every day.
func (p *SavingsPlan) CollectsOn(day int) bool {
	if len(p.CollectionDays) == 0 {
		return true
	}
	for _, d := range p.CollectionDays {
		if d == day {
			return true
		}
	}
	return false
}

// InGrace reports whether the date still falls inside the plan's grace window.
func (p *SavingsPlan) InGrace(date time.Time) bool {
	if p.GraceDays <= 0 {
		return false
	}
	return midnightUTC(date).Before(p.StartDate.AddDate(0, 0, p.GraceDays))
}

// =============================================================================
// DAILY COLLECTION
// =============================================================================

// DailyCollection records one actual payment against a plan for a specific
// (week, day). At most one non-cancelled record with amount > 0 may exist per
// (plan, week, day); cancellation is a soft delete that reopens the slot.
type DailyCollection struct {
	ID          CollectionID
	PlanID      PlanID
	Date        time.Time
	Week        int
	Day         int
	Amount      decimal.Decimal
	Source      string // payment type: cash, transfer, ...
	Reference   string // optional receipt number
	CollectorID MemberID
	RecordedAt  time.Time

	Cancelled    bool
	CancelReason string
}

// Active reports whether the record counts toward sums and due checks.
func (c *DailyCollection) Active() bool {
	return !c.Cancelled && c.Amount.IsPositive()
}

// =============================================================================
// DAILY ARREAR
// =============================================================================

// DailyArrear is one row per (plan, week, day) where a due contribution was
// not fully collected. Rows are audit records: mutated as partial payments
// arrive, never deleted. Invariant: Remaining = AmountDue - PaidAmount >= 0.
type DailyArrear struct {
	ID         string
	PlanID     PlanID
	Week       int
	Day        int
	Date       time.Time
	AmountDue  decimal.Decimal
	PaidAmount decimal.Decimal
	Remaining  decimal.Decimal
	IsPaid     bool
	PaidDate   *time.Time
}

// =============================================================================
// ACCUMULATED ARREARS
// =============================================================================

// AccumulatedArrears is the plan's arrears account: exactly one row per plan,
// holding the running total of all unpaid amounts folded forward from closed
// weeks. LastWeekNumber strictly increases; a week is never folded in twice.
// Invariant: Remaining = TotalArrears - PaidAmount.
type AccumulatedArrears struct {
	PlanID         PlanID
	LastWeekNumber int
	TotalArrears   decimal.Decimal
	PaidAmount     decimal.Decimal
	Remaining      decimal.Decimal
	IsPaid         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AccumulatedArrearPayment is an append-only ledger entry recording one
// payment toward a plan's accumulated balance. The sum over a plan never
// exceeds that plan's TotalArrears.
type AccumulatedArrearPayment struct {
	ID         string
	PlanID     PlanID
	Week       int
	Day        int
	Amount     decimal.Decimal
	PaidAt     time.Time
	RecorderID MemberID
	Notes      string
}

// WeeklyArrearPaymentHistory is the audit trail parallel to
// AccumulatedArrearPayment, used for statement generation.
// Invariant: RemainingBefore - Amount = RemainingAfter.
type WeeklyArrearPaymentHistory struct {
	ID              string
	PlanID          PlanID
	Week            int
	PaidAt          time.Time
	Amount          decimal.Decimal
	RemainingBefore decimal.Decimal
	RemainingAfter  decimal.Decimal
	Notes           string
	RecordedAt      time.Time
}

// =============================================================================
// WEEKLY RECONCILIATION
// =============================================================================

type ReconciliationStatus string

const (
	ReconciliationPending   ReconciliationStatus = "pending"
	ReconciliationCompleted ReconciliationStatus = "completed"
)

// WeeklyReconciliation compares the expected contributions for a week across
// all active plans (plus arrears paid) against the actual cash total from the
// vault. One row per week; immutable after creation except status and notes.
// Difference = Actual - Expected (negative = shortfall).
type WeeklyReconciliation struct {
	ID          string
	Week        int
	WeekStart   time.Time
	WeekEnd     time.Time
	Expected    decimal.Decimal
	Actual      decimal.Decimal
	Difference  decimal.Decimal
	Notes       string
	Status      ReconciliationStatus
	PerformerID MemberID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

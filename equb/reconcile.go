/*
reconcile.go - Weekly expected-vs-actual reconciliation

PURPOSE:
  Compares the sum of expected contributions for a week across all active
  plans (plus accumulated-arrear payments recorded that week) against the
  actual cash total deposited for that week, producing a signed variance.
  Difference = actual - expected; negative means a shortfall.

LIFECYCLE:
  One record per week, enforced by a unique constraint; a second run fails
  with ErrAlreadyReconciled and the stored row is unchanged. A record starts
  Pending; a separate confirmation step marks it Completed. Amounts are
  immutable after creation - only status and notes may change.

SEE ALSO:
  - vault: supplies the actual weekly deposit total
  - accumulator.go: arrear payments counted into the expected total
*/
package equb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reconciler runs and confirms weekly reconciliations.
type Reconciler struct {
	store    TxStore
	calendar Calendar
}

func NewReconciler(store TxStore, cal Calendar) *Reconciler {
	return &Reconciler{store: store, calendar: cal}
}

// ExpectedAmount computes the week's expected cash: each active plan's daily
// amount times the days it was scheduled that week, plus accumulated-arrear
// payments recorded during the week. With the default every-day schedule a
// plan contributes daily amount x 7.
func (r *Reconciler) ExpectedAmount(ctx context.Context, week int) (decimal.Decimal, error) {
	return r.expectedTx(ctx, r.store, week)
}

// Reconcile creates the week's reconciliation record. The actual amount is
// supplied by the caller from the vault ledger's weekly deposit total.
func (r *Reconciler) Reconcile(ctx context.Context, week int, actual decimal.Decimal, performer MemberID, notes string) (*WeeklyReconciliation, error) {
	if week < 1 {
		return nil, &InvariantViolationError{Week: week, Detail: "week out of range"}
	}

	var out *WeeklyReconciliation
	err := r.store.WithTx(ctx, func(s Store) error {
		existing, err := s.GetReconciliation(ctx, week)
		if err != nil {
			return err
		}
		if existing != nil {
			return &AlreadyReconciledError{Week: week, ExistingID: existing.ID}
		}

		expected, err := r.expectedTx(ctx, s, week)
		if err != nil {
			return err
		}

		start, end := r.calendar.WeekBounds(week)
		now := time.Now().UTC()
		rec := WeeklyReconciliation{
			ID:          uuid.NewString(),
			Week:        week,
			WeekStart:   start,
			WeekEnd:     end,
			Expected:    expected,
			Actual:      actual,
			Difference:  actual.Sub(expected),
			Notes:       notes,
			Status:      ReconciliationPending,
			PerformerID: performer,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.InsertReconciliation(ctx, rec); err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// expectedTx is ExpectedAmount against the transaction's snapshot.
func (r *Reconciler) expectedTx(ctx context.Context, s Store, week int) (decimal.Decimal, error) {
	plans, err := s.GetActivePlans(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	schedule := NewSchedule(s, r.calendar)
	expected := decimal.Zero
	for i := range plans {
		plan := &plans[i]
		days := 0
		for day := 1; day <= DaysPerWeek; day++ {
			if schedule.Scheduled(plan, week, day) {
				days++
			}
		}
		if days > 0 {
			expected = expected.Add(plan.DailyAmount.Mul(decimal.NewFromInt(int64(days))))
		}
	}
	arrearPaid, err := s.SumArrearPayments(ctx, week)
	if err != nil {
		return decimal.Zero, err
	}
	return expected.Add(arrearPaid), nil
}

// Complete confirms a pending reconciliation. Completing an already-completed
// week is a no-op.
func (r *Reconciler) Complete(ctx context.Context, week int, notes string) (*WeeklyReconciliation, error) {
	var out *WeeklyReconciliation
	err := r.store.WithTx(ctx, func(s Store) error {
		rec, err := s.GetReconciliation(ctx, week)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrReconciliationNotFound
		}
		if rec.Status == ReconciliationCompleted {
			out = rec
			return nil
		}
		rec.Status = ReconciliationCompleted
		if notes != "" {
			rec.Notes = notes
		}
		rec.UpdatedAt = time.Now().UTC()
		if err := s.UpdateReconciliation(ctx, *rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

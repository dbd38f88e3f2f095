/*
accumulator.go - Rollover of closed weeks into the per-plan arrears account

PURPOSE:
  Folds a closed week's unpaid daily arrears into ONE running row per plan.
  A single row answers "how much does this member owe in total" in O(1);
  per-week detail for statements lives in WeeklyArrearPaymentHistory.

ROLLOVER GUARD:
  LastWeekNumber is a strictly increasing high-water mark. Folding requires
  week > LastWeekNumber; anything else fails with ErrAlreadyRolled. A week's
  arrears are therefore never double-counted, no matter how often the close
  job reruns.

PAYMENT LEDGERS:
  RecordArrearPayment appends one AccumulatedArrearPayment AND one
  WeeklyArrearPaymentHistory row (capturing remaining before/after) in the
  same transaction as the balance update. The two ledgers are never written
  apart.

STATE MACHINE (plan arrears lifecycle):
  NoArrears -> HasDailyArrear -> RolledToAccumulated -> PartiallyPaid -> FullyPaid
  FullyPaid is reached only when Remaining == 0.

SEE ALSO:
  - arrears.go: Produces the per-day rows folded here
  - reconcile.go: Weekly expected totals include arrear payments
*/
package equb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Accumulator maintains the per-plan accumulated-arrears account.
type Accumulator struct {
	store    TxStore
	calendar Calendar
}

func NewAccumulator(store TxStore, cal Calendar) *Accumulator {
	return &Accumulator{store: store, calendar: cal}
}

// =============================================================================
// ROLLOVER
// =============================================================================

// Rollover folds the plan's unpaid arrears for a closed week into its
// accumulated balance. Creates the account row on first arrears; afterwards
// requires week > LastWeekNumber (ErrAlreadyRolled otherwise). A week with
// nothing unpaid still advances the high-water mark.
func (a *Accumulator) Rollover(ctx context.Context, planID PlanID, week int) (*AccumulatedArrears, error) {
	var out *AccumulatedArrears
	err := a.store.WithTx(ctx, func(s Store) error {
		acc, err := a.rolloverTx(ctx, s, planID, week)
		if err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RolloverAll folds the week for every active plan. Plans already at or past
// the week are skipped rather than failing the batch.
func (a *Accumulator) RolloverAll(ctx context.Context, week int) ([]AccumulatedArrears, error) {
	plans, err := a.store.GetActivePlans(ctx)
	if err != nil {
		return nil, err
	}

	var folded []AccumulatedArrears
	err = a.store.WithTx(ctx, func(s Store) error {
		for i := range plans {
			acc, err := a.rolloverTx(ctx, s, plans[i].ID, week)
			if err != nil {
				if IsConflict(err) {
					continue
				}
				return err
			}
			if acc != nil {
				folded = append(folded, *acc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return folded, nil
}

func (a *Accumulator) rolloverTx(ctx context.Context, s Store, planID PlanID, week int) (*AccumulatedArrears, error) {
	arrears, err := s.ListDailyArrears(ctx, planID, week)
	if err != nil {
		return nil, err
	}
	sum := decimal.Zero
	for _, ar := range arrears {
		if !ar.IsPaid {
			sum = sum.Add(ar.Remaining)
		}
	}

	acc, err := s.GetAccumulated(ctx, planID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	if acc == nil {
		if sum.IsZero() {
			// Nothing owed and no account yet: nothing to fold.
			return nil, nil
		}
		acc = &AccumulatedArrears{
			PlanID:         planID,
			LastWeekNumber: week,
			TotalArrears:   sum,
			PaidAmount:     decimal.Zero,
			Remaining:      sum,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.SaveAccumulated(ctx, *acc); err != nil {
			return nil, err
		}
		return acc, nil
	}

	if week <= acc.LastWeekNumber {
		return nil, &AlreadyRolledError{PlanID: planID, Week: week, LastWeek: acc.LastWeekNumber}
	}

	acc.TotalArrears = acc.TotalArrears.Add(sum)
	acc.Remaining = acc.Remaining.Add(sum)
	acc.LastWeekNumber = week
	acc.IsPaid = acc.Remaining.IsZero()
	acc.UpdatedAt = now

	if !acc.Remaining.Equal(acc.TotalArrears.Sub(acc.PaidAmount)) {
		return nil, &InvariantViolationError{
			PlanID: planID,
			Week:   week,
			Detail: fmt.Sprintf("accumulated remaining %s != total %s - paid %s",
				acc.Remaining, acc.TotalArrears, acc.PaidAmount),
		}
	}
	if err := s.SaveAccumulated(ctx, *acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// =============================================================================
// ARREAR PAYMENTS
// =============================================================================

// ArrearPaymentInput describes one payment toward a plan's accumulated balance.
type ArrearPaymentInput struct {
	PlanID     PlanID
	Amount     decimal.Decimal
	RecorderID MemberID
	Notes      string
	PaidAt     time.Time // zero value means now
}

// RecordArrearPayment applies a payment to the accumulated balance and
// appends both payment ledgers atomically. Fails with ErrInvalidAmount if
// the amount is non-positive or exceeds the remaining balance, and with
// ErrNoAccumulated if the plan has no arrears account.
func (a *Accumulator) RecordArrearPayment(ctx context.Context, in ArrearPaymentInput) (*AccumulatedArrears, error) {
	if !in.Amount.IsPositive() {
		return nil, &InvalidAmountError{Op: "record arrear payment", Amount: in.Amount}
	}
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	wd := a.calendar.WeekDayOf(paidAt)

	var out *AccumulatedArrears
	err := a.store.WithTx(ctx, func(s Store) error {
		acc, err := s.GetAccumulated(ctx, in.PlanID)
		if err != nil {
			return err
		}
		if acc == nil {
			return ErrNoAccumulated
		}
		if in.Amount.GreaterThan(acc.Remaining) {
			limit := acc.Remaining
			return &InvalidAmountError{Op: "record arrear payment", Amount: in.Amount, Limit: &limit}
		}

		before := acc.Remaining
		acc.PaidAmount = acc.PaidAmount.Add(in.Amount)
		acc.Remaining = acc.Remaining.Sub(in.Amount)
		acc.IsPaid = acc.Remaining.IsZero()
		acc.UpdatedAt = time.Now().UTC()

		if acc.Remaining.IsNegative() || !acc.Remaining.Equal(acc.TotalArrears.Sub(acc.PaidAmount)) {
			return &InvariantViolationError{
				PlanID: in.PlanID,
				Week:   wd.Week,
				Detail: fmt.Sprintf("accumulated remaining %s != total %s - paid %s after payment of %s",
					acc.Remaining, acc.TotalArrears, acc.PaidAmount, in.Amount),
			}
		}

		if err := s.SaveAccumulated(ctx, *acc); err != nil {
			return err
		}
		// Both ledgers ride the same transaction: a payment row without its
		// history row is a correctness bug.
		if err := s.InsertArrearPayment(ctx, AccumulatedArrearPayment{
			ID:         uuid.NewString(),
			PlanID:     in.PlanID,
			Week:       wd.Week,
			Day:        wd.Day,
			Amount:     in.Amount,
			PaidAt:     paidAt,
			RecorderID: in.RecorderID,
			Notes:      in.Notes,
		}); err != nil {
			return err
		}
		if err := s.InsertPaymentHistory(ctx, WeeklyArrearPaymentHistory{
			ID:              uuid.NewString(),
			PlanID:          in.PlanID,
			Week:            wd.Week,
			PaidAt:          paidAt,
			Amount:          in.Amount,
			RemainingBefore: before,
			RemainingAfter:  acc.Remaining,
			Notes:           in.Notes,
			RecordedAt:      time.Now().UTC(),
		}); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// STATEMENTS
// =============================================================================

// ArrearsStatement is the per-plan summary used by statements and reports.
type ArrearsStatement struct {
	Plan        SavingsPlan
	Accumulated *AccumulatedArrears // nil when the plan never accrued arrears
	Payments    []AccumulatedArrearPayment
	History     []WeeklyArrearPaymentHistory
}

// Statement assembles the arrears summary for one plan.
func (a *Accumulator) Statement(ctx context.Context, planID PlanID) (*ArrearsStatement, error) {
	plan, err := a.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	acc, err := a.store.GetAccumulated(ctx, planID)
	if err != nil {
		return nil, err
	}
	payments, err := a.store.ListArrearPayments(ctx, planID)
	if err != nil {
		return nil, err
	}
	history, err := a.store.ListPaymentHistory(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &ArrearsStatement{
		Plan:        *plan,
		Accumulated: acc,
		Payments:    payments,
		History:     history,
	}, nil
}

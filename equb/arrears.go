/*
arrears.go - Batch arrears derivation for a closed week

PURPOSE:
  Once a week has fully elapsed, derive one DailyArrear per (plan, week, day)
  that was scheduled but has no qualifying collection. Arrears are a derived
  view of the collection ledger, computed lazily when the week closes -
  NOT a live side effect of every payment. This keeps payment recording
  simple at the cost of an explicit close-the-week step.

PARTIAL PAYMENTS:
  A payment against a specific day's arrear updates paid/remaining and flips
  the paid flag when remaining reaches zero. Remaining never goes negative;
  a breach is an invariant violation and aborts the transaction.

ROW LIFECYCLE:
  Rows are audit records and are never deleted. Once a week's unpaid
  remainder is folded into the accumulated balance (accumulator.go), the
  rollover high-water mark prevents that week's rows from ever being
  counted again.

SEE ALSO:
  - schedule.go: Scheduled() is the predicate replayed here
  - accumulator.go: Fold of a closed week into the running balance
*/
package equb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ArrearsCalculator derives and settles per-day arrears.
type ArrearsCalculator struct {
	store    TxStore
	schedule *Schedule
	calendar Calendar
}

func NewArrearsCalculator(store TxStore, cal Calendar) *ArrearsCalculator {
	return &ArrearsCalculator{
		store:    store,
		schedule: NewSchedule(store, cal),
		calendar: cal,
	}
}

// CloseWeek derives DailyArrear rows for every unpaid scheduled day of the
// week, across all active plans. Idempotent: existing rows are left in place,
// so re-closing a week after a late cancellation only adds the newly opened
// slots. Returns the arrears now standing for the week.
func (c *ArrearsCalculator) CloseWeek(ctx context.Context, week int) ([]DailyArrear, error) {
	plans, err := c.store.GetActivePlans(ctx)
	if err != nil {
		return nil, err
	}

	var created []DailyArrear
	err = c.store.WithTx(ctx, func(s Store) error {
		for i := range plans {
			plan := &plans[i]

			// Weeks at or below the rollover mark are already summarized
			// into the accumulated balance.
			acc, err := s.GetAccumulated(ctx, plan.ID)
			if err != nil {
				return err
			}
			if acc != nil && week <= acc.LastWeekNumber {
				continue
			}

			for day := 1; day <= DaysPerWeek; day++ {
				if !c.schedule.Scheduled(plan, week, day) {
					continue
				}
				paid, err := s.ActiveCollection(ctx, plan.ID, week, day)
				if err != nil {
					return err
				}
				if paid != nil {
					continue
				}
				existing, err := s.GetDailyArrear(ctx, plan.ID, week, day)
				if err != nil {
					return err
				}
				if existing != nil {
					created = append(created, *existing)
					continue
				}
				arrear := DailyArrear{
					ID:         uuid.NewString(),
					PlanID:     plan.ID,
					Week:       week,
					Day:        day,
					Date:       c.calendar.DateOf(week, day),
					AmountDue:  plan.DailyAmount,
					PaidAmount: decimal.Zero,
					Remaining:  plan.DailyAmount,
				}
				if err := s.UpsertDailyArrear(ctx, arrear); err != nil {
					return err
				}
				created = append(created, arrear)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// PayDailyArrear applies a (possibly partial) payment against one day's
// arrear. Fails with ErrInvalidAmount if the amount is non-positive or
// exceeds the remaining balance.
func (c *ArrearsCalculator) PayDailyArrear(ctx context.Context, planID PlanID, week, day int, amount decimal.Decimal) (*DailyArrear, error) {
	if !amount.IsPositive() {
		return nil, &InvalidAmountError{Op: "pay daily arrear", Amount: amount}
	}

	var out *DailyArrear
	err := c.store.WithTx(ctx, func(s Store) error {
		arrear, err := s.GetDailyArrear(ctx, planID, week, day)
		if err != nil {
			return err
		}
		if arrear == nil {
			return ErrArrearNotFound
		}
		if amount.GreaterThan(arrear.Remaining) {
			limit := arrear.Remaining
			return &InvalidAmountError{Op: "pay daily arrear", Amount: amount, Limit: &limit}
		}

		arrear.PaidAmount = arrear.PaidAmount.Add(amount)
		arrear.Remaining = arrear.Remaining.Sub(amount)
		if !arrear.Remaining.Equal(arrear.AmountDue.Sub(arrear.PaidAmount)) || arrear.Remaining.IsNegative() {
			return &InvariantViolationError{
				PlanID: planID,
				Week:   week,
				Detail: "daily arrear remaining != due - paid after payment of " + amount.String(),
			}
		}
		if arrear.Remaining.IsZero() {
			now := time.Now().UTC()
			arrear.IsPaid = true
			arrear.PaidDate = &now
		}
		if err := s.UpdateDailyArrear(ctx, *arrear); err != nil {
			return err
		}
		out = arrear
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UnpaidForWeek sums a plan's outstanding arrears for one week.
func (c *ArrearsCalculator) UnpaidForWeek(ctx context.Context, planID PlanID, week int) (decimal.Decimal, error) {
	arrears, err := c.store.ListDailyArrears(ctx, planID, week)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range arrears {
		if !a.IsPaid {
			total = total.Add(a.Remaining)
		}
	}
	return total, nil
}

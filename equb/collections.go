/*
collections.go - The daily-collection ledger

PURPOSE:
  Records actual payments against a plan for a specific (week, day) slot.
  Enforces at-most-one active payment per slot. Recording a payment does NOT
  touch arrears: arrears are a derived, batch-computed view of this ledger
  for a closed week (see arrears.go). A late payment against an
  already-generated arrear goes through the arrear-payment path instead.

CANCELLATION:
  Cancel is a soft delete. Cancelled records are excluded from every sum and
  due check, which functionally reopens the slot for a new payment. Records
  are never hard-deleted.

SEE ALSO:
  - schedule.go: Due checks consult this ledger
  - accumulator.go: RecordArrearPayment for late payments on folded weeks
*/
package equb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CollectionLedger records and cancels daily collections.
type CollectionLedger struct {
	store    TxStore
	calendar Calendar
}

func NewCollectionLedger(store TxStore, cal Calendar) *CollectionLedger {
	return &CollectionLedger{store: store, calendar: cal}
}

// RecordPaymentInput carries everything needed to fill a slot.
type RecordPaymentInput struct {
	PlanID      PlanID
	Week        int
	Day         int
	Amount      decimal.Decimal
	Source      string
	Reference   string
	CollectorID MemberID
}

// RecordPayment fills the (plan, week, day) slot.
// Fails with ErrInvalidAmount for non-positive amounts, ErrPlanNotFound for
// unknown plans, and ErrDuplicatePayment when an active record already exists.
func (l *CollectionLedger) RecordPayment(ctx context.Context, in RecordPaymentInput) (*DailyCollection, error) {
	if !in.Amount.IsPositive() {
		return nil, &InvalidAmountError{Op: "record payment", Amount: in.Amount}
	}
	if wd := (WeekDay{Week: in.Week, Day: in.Day}); !wd.Valid() {
		return nil, &InvariantViolationError{PlanID: in.PlanID, Week: in.Week, Detail: "week/day out of range"}
	}

	plan, err := l.store.GetPlan(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}

	rec := DailyCollection{
		ID:          CollectionID(uuid.NewString()),
		PlanID:      in.PlanID,
		Date:        l.calendar.DateOf(in.Week, in.Day),
		Week:        in.Week,
		Day:         in.Day,
		Amount:      in.Amount,
		Source:      in.Source,
		Reference:   in.Reference,
		CollectorID: in.CollectorID,
		RecordedAt:  time.Now().UTC(),
	}

	// Duplicate check and insert share one transaction so a concurrent
	// reader never observes a half-filled slot.
	err = l.store.WithTx(ctx, func(s Store) error {
		existing, err := s.ActiveCollection(ctx, in.PlanID, in.Week, in.Day)
		if err != nil {
			return err
		}
		if existing != nil {
			return &DuplicatePaymentError{
				PlanID:     in.PlanID,
				Week:       in.Week,
				Day:        in.Day,
				ExistingID: existing.ID,
			}
		}
		return s.InsertCollection(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Cancel soft-deletes a collection, reopening its slot. Cancelling an
// already-cancelled record is a no-op.
func (l *CollectionLedger) Cancel(ctx context.Context, id CollectionID, reason string) (*DailyCollection, error) {
	var rec *DailyCollection
	err := l.store.WithTx(ctx, func(s Store) error {
		c, err := s.GetCollection(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrCollectionNotFound
		}
		if c.Cancelled {
			rec = c
			return nil
		}
		c.Cancelled = true
		c.CancelReason = reason
		if err := s.UpdateCollection(ctx, *c); err != nil {
			return err
		}
		rec = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

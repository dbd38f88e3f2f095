/*
schedule.go - Due schedule derivation

PURPOSE:
  Answers "is a contribution due for this plan at this (week, day), and how
  much?". The schedule is flat: the amount due is always the plan's daily
  amount, regardless of week. No escalation.

DUE RULES:
  A (plan, week, day) is due iff ALL of:
    1. the plan is Active
    2. the plan collects on that day number (empty set = every day)
    3. the date is on/after the plan's start and past its grace window
    4. no active collection already fills the slot

SEE ALSO:
  - arrears.go: Uses the same predicate minus rule 4's payment check to
    derive arrears for a closed week
  - api/handlers.go: due-today query for collection UIs
*/
package equb

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Schedule derives due amounts for plans against the cycle calendar.
type Schedule struct {
	store    Store
	calendar Calendar
}

func NewSchedule(store Store, cal Calendar) *Schedule {
	return &Schedule{store: store, calendar: cal}
}

// Scheduled reports whether the plan is expected to contribute on the given
// (week, day), ignoring whether a payment already exists. This is the
// predicate the arrears calculator replays for a closed week.
func (s *Schedule) Scheduled(plan *SavingsPlan, week, day int) bool {
	if plan.Status != PlanActive {
		return false
	}
	if !plan.CollectsOn(day) {
		return false
	}
	date := s.calendar.DateOf(week, day)
	if date.Before(plan.StartDate) || plan.InGrace(date) {
		return false
	}
	return true
}

// IsDue reports whether a contribution is still owed for the slot: scheduled
// and not yet covered by an active collection.
func (s *Schedule) IsDue(ctx context.Context, plan *SavingsPlan, week, day int) (bool, error) {
	if !s.Scheduled(plan, week, day) {
		return false, nil
	}
	existing, err := s.store.ActiveCollection(ctx, plan.ID, week, day)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

// =============================================================================
// DUE-TODAY QUERY
// =============================================================================

// DueItem is one plan's outstanding contribution for a specific day.
type DueItem struct {
	Plan   SavingsPlan
	Week   int
	Day    int
	Date   string
	Amount decimal.Decimal
}

// DueOn lists what every active plan owes on the given calendar date.
// Collection UIs use this to know what to collect today.
func (s *Schedule) DueOn(ctx context.Context, date time.Time) ([]DueItem, error) {
	wd := s.calendar.WeekDayOf(date)

	plans, err := s.store.GetActivePlans(ctx)
	if err != nil {
		return nil, err
	}

	var items []DueItem
	for i := range plans {
		plan := &plans[i]
		due, err := s.IsDue(ctx, plan, wd.Week, wd.Day)
		if err != nil {
			return nil, err
		}
		if !due {
			continue
		}
		items = append(items, DueItem{
			Plan:   *plan,
			Week:   wd.Week,
			Day:    wd.Day,
			Date:   s.calendar.DateOf(wd.Week, wd.Day).Format("2006-01-02"),
			Amount: plan.DailyAmount,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Plan.MemberID != items[j].Plan.MemberID {
			return items[i].Plan.MemberID < items[j].Plan.MemberID
		}
		return items[i].Plan.SequenceNo < items[j].Plan.SequenceNo
	})
	return items, nil
}

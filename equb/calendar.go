/*
Package equb provides the accounting core for a rotating-savings association.

PURPOSE:
  Members commit to a fixed daily contribution over a 26-week cycle. This
  package reconciles what was due against what was actually collected, rolls
  unpaid amounts forward into a per-plan accumulated-arrears balance, and
  verifies weekly cash totals against expectation.

KEY CONCEPTS IN THIS FILE (calendar.go):
  - Calendar: pure mapping between calendar dates and (week, day) pairs,
    anchored to an explicit cycle start date
  - WeekDay: a (week, day) position within the cycle
  - DefaultAnchor: the first Saturday on/after January 1 when no explicit
    cycle start is configured

DESIGN PRINCIPLES:
  1. Purity: the anchor is an explicit parameter, never ambient state
  2. Precision: all money uses decimal.Decimal (see types.go)
  3. Auditability: arrears and payments are append-only records

SEE ALSO:
  - schedule.go: Derives whether a contribution is due for a (week, day)
  - arrears.go: Batch arrears derivation for a closed week
  - accumulator.go: Rollover into the per-plan accumulated balance
*/
package equb

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// CYCLE CONSTANTS
// =============================================================================

const (
	// DaysPerWeek is fixed; day 1 is Saturday, day 7 is Friday.
	DaysPerWeek = 7

	// CycleWeeks is the nominal length of a savings cycle.
	// Weeks are NOT capped here: a plan running past its horizon keeps
	// producing week 27, 28, ... so stale plans remain representable.
	CycleWeeks = 26

	// CycleDays is the nominal cycle span in days.
	CycleDays = CycleWeeks * DaysPerWeek
)

// dayNames is the fixed day table. Day 1 = Saturday, matching the
// association's collection week.
var dayNames = [DaysPerWeek]string{
	"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday",
}

// DayName returns the name for a day number in [1, 7]. Out-of-range day
// numbers return an empty string.
func DayName(day int) string {
	if day < 1 || day > DaysPerWeek {
		return ""
	}
	return dayNames[day-1]
}

// =============================================================================
// WEEK-DAY POSITION
// =============================================================================

// WeekDay is a position within the cycle: week >= 1, day in [1, 7].
type WeekDay struct {
	Week int
	Day  int
}

func (wd WeekDay) String() string {
	return fmt.Sprintf("W%d/D%d (%s)", wd.Week, wd.Day, DayName(wd.Day))
}

// Valid reports whether the position is well-formed.
func (wd WeekDay) Valid() bool {
	return wd.Week >= 1 && wd.Day >= 1 && wd.Day <= DaysPerWeek
}

// =============================================================================
// CALENDAR - date <-> (week, day) mapping
// =============================================================================

// Calendar maps calendar dates to cycle positions and back. Both directions
// are pure functions of the anchor; construct one wherever a mapping is
// needed instead of reaching for shared state.
type Calendar struct {
	anchor time.Time
}

// NewCalendar builds a Calendar anchored at the given cycle start date.
// The anchor is truncated to midnight UTC; time-of-day never participates
// in week/day math.
func NewCalendar(anchor time.Time) Calendar {
	return Calendar{anchor: midnightUTC(anchor)}
}

// DefaultAnchor returns the first Saturday on or after January 1 of the
// given year. Used when no explicit cycle start date is configured.
func DefaultAnchor(year int) time.Time {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Saturday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Anchor returns the cycle start date (midnight UTC).
func (c Calendar) Anchor() time.Time { return c.anchor }

// WeekDayOf maps a date to its (week, day) position.
// Dates strictly before the anchor collapse to (1, 1): the cycle has no
// negative weeks.
func (c Calendar) WeekDayOf(date time.Time) WeekDay {
	days := daysBetween(c.anchor, midnightUTC(date))
	if days < 0 {
		return WeekDay{Week: 1, Day: 1}
	}
	totalDay := days + 1
	return WeekDay{
		Week: ((totalDay - 1) / DaysPerWeek) + 1,
		Day:  ((totalDay - 1) % DaysPerWeek) + 1,
	}
}

// DateOf is the algebraic inverse of WeekDayOf for valid positions:
// anchor + (week-1)*7 + (day-1) days.
func (c Calendar) DateOf(week, day int) time.Time {
	return c.anchor.AddDate(0, 0, (week-1)*DaysPerWeek+(day-1))
}

// WeekBounds returns the first and last calendar dates of a week.
func (c Calendar) WeekBounds(week int) (start, end time.Time) {
	return c.DateOf(week, 1), c.DateOf(week, DaysPerWeek)
}

// =============================================================================
// SETTINGS SOURCE
// =============================================================================

// SettingsSource supplies the cycle's configured start date, if any.
// A nil date means "not configured" and triggers the first-Saturday default.
type SettingsSource interface {
	GetCycleStartDate(ctx context.Context) (*time.Time, error)
}

// CalendarFor resolves a Calendar from settings, falling back to the
// default anchor for the given year when no start date is configured.
func CalendarFor(ctx context.Context, src SettingsSource, year int) (Calendar, error) {
	start, err := src.GetCycleStartDate(ctx)
	if err != nil {
		return Calendar{}, err
	}
	if start == nil {
		return NewCalendar(DefaultAnchor(year)), nil
	}
	return NewCalendar(*start), nil
}

// =============================================================================
// TIME HELPERS
// =============================================================================

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

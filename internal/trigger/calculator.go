// Package trigger computes when a reminder should next fire. The search
// is pure: same inputs, same answer, no side effects, so callers may run
// it from any goroutine.
package trigger

import (
	"time"

	"remindd/internal/reminder"
	"remindd/internal/rule"
)

// HolidayOracle answers whether a calendar date is a holiday. Only the
// date component of the argument is significant.
type HolidayOracle interface {
	IsHoliday(date time.Time) bool
}

// Calculator evaluates recurrence rules. A nil oracle means no holidays.
type Calculator struct {
	holidays HolidayOracle
}

func NewCalculator(h HolidayOracle) *Calculator {
	return &Calculator{holidays: h}
}

func (c *Calculator) isHoliday(t time.Time) bool {
	return c.holidays != nil && c.holidays.IsHoliday(t)
}

// Next returns the earliest instant strictly after now at which the rule
// fires, or ok=false when no further occurrence exists within the search
// ceiling (endDate if set, otherwise one year past the search start).
//
// The result is always strictly after now; an instant that already passed
// today is never re-fired.
func (c *Calculator) Next(
	now time.Time,
	r rule.Rule,
	start time.Time,
	end *time.Time,
	excludeHolidays bool,
	tod reminder.TimeOfDay,
) (time.Time, bool) {
	switch r.Kind {
	case rule.Never:
		// One-shot: the start day at the firing time, future only. A
		// no-match here is what lets the reconciler detect completion.
		candidate := tod.On(start)
		if candidate.After(now) {
			return candidate, true
		}
		return time.Time{}, false
	case rule.IntervalMinutes:
		return c.nextInterval(now, r, start, end, excludeHolidays, tod)
	default:
		return c.nextDayWalk(now, r, start, end, excludeHolidays, tod)
	}
}

// nextDayWalk handles the calendar-shaped rules by stepping one day at a
// time. The ceiling bounds the walk to at most ~366 iterations.
func (c *Calculator) nextDayWalk(
	now time.Time,
	r rule.Rule,
	start time.Time,
	end *time.Time,
	excludeHolidays bool,
	tod reminder.TimeOfDay,
) (time.Time, bool) {
	var search time.Time
	if now.Before(start) {
		search = start
	} else {
		today := tod.On(now)
		if today.After(now) {
			search = today
		} else {
			search = tod.On(now.AddDate(0, 0, 1))
		}
	}

	ceiling := search.AddDate(1, 0, 0)
	if end != nil {
		ceiling = *end
	}

	for current := search; !current.After(ceiling); current = current.AddDate(0, 0, 1) {
		candidate := tod.On(current)
		if !matches(candidate, r, start) {
			continue
		}
		if excludeHolidays && c.isHoliday(candidate) {
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}

// nextInterval handles sub-day interval rules. Whole-day stepping cannot
// express these, so occurrences are generated directly: the first firing
// is the start day at the firing time, then every interval after it.
func (c *Calculator) nextInterval(
	now time.Time,
	r rule.Rule,
	start time.Time,
	end *time.Time,
	excludeHolidays bool,
	tod reminder.TimeOfDay,
) (time.Time, bool) {
	interval := r.Interval()
	if interval <= 0 {
		return time.Time{}, false
	}

	anchor := tod.On(start)
	candidate := anchor
	if !now.Before(anchor) {
		elapsed := now.Sub(anchor)
		steps := elapsed/interval + 1
		candidate = anchor.Add(steps * interval)
	}

	ceiling := candidate.AddDate(1, 0, 0)
	if end != nil {
		ceiling = *end
	}

	for !candidate.After(ceiling) {
		if !excludeHolidays || !c.isHoliday(candidate) {
			return candidate, true
		}
		candidate = candidate.Add(interval)
	}
	return time.Time{}, false
}

// matches tests a candidate instant against the rule. Day-of-month values
// past a month's length never match that month; there is no clamping.
func matches(candidate time.Time, r rule.Rule, start time.Time) bool {
	if candidate.Before(start) {
		return false
	}
	switch r.Kind {
	case rule.Never:
		sy, sm, sd := start.Date()
		cy, cm, cd := candidate.Date()
		return sy == cy && sm == cm && sd == cd
	case rule.Daily:
		return true
	case rule.Weekly:
		return r.WeekdaySet()[rule.FromTime(candidate.Weekday())]
	case rule.Monthly:
		return candidate.Day() == r.Day
	case rule.Yearly:
		return candidate.Month() == r.Month && candidate.Day() == r.Day
	case rule.IntervalMinutes:
		// Interval rules have their own search mode; a day-granular
		// match cannot represent them.
		return false
	default:
		return false
	}
}

// NextFor is Next with the inputs pulled from a reminder. It is the
// read-only query UIs use for "next in 2h 15m" style display.
func (c *Calculator) NextFor(now time.Time, rem *reminder.Reminder) (time.Time, bool) {
	return c.Next(now, rem.Repeat, rem.StartDate, rem.EndDate, rem.ExcludeHolidays, rem.TimeOfDay)
}

// Schedule enumerates every occurrence in (from, to], in order. Useful
// for previewing a rule before committing it.
func (c *Calculator) Schedule(
	from, to time.Time,
	r rule.Rule,
	start time.Time,
	excludeHolidays bool,
	tod reminder.TimeOfDay,
) []time.Time {
	var out []time.Time
	now := from
	for {
		next, ok := c.Next(now, r, start, &to, excludeHolidays, tod)
		if !ok || next.After(to) {
			return out
		}
		out = append(out, next)
		now = next
	}
}

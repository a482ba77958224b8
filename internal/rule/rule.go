// Package rule defines the recurrence shapes a reminder can repeat on.
//
// A Rule is a tagged union: Kind selects the shape, the payload fields are
// meaningful only for their kind. Every consumer (trigger search, equality,
// description, RRULE interop) switches exhaustively on Kind so a new shape
// is a compile-visible change everywhere.
package rule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidRule is wrapped by every constructor rejection. Rules are
// validated here, at the boundary; the trigger search assumes payloads
// are well-formed and simply never matches a hopeless one.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Weekday uses the 1=Sunday .. 7=Saturday numbering. The same convention
// is used in stored rule payloads and in calendar-derived comparisons.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// FromTime converts Go's 0=Sunday numbering.
func FromTime(wd time.Weekday) Weekday { return Weekday(int(wd) + 1) }

func (w Weekday) Valid() bool { return w >= Sunday && w <= Saturday }

func (w Weekday) String() string {
	switch w {
	case Sunday:
		return "Sun"
	case Monday:
		return "Mon"
	case Tuesday:
		return "Tue"
	case Wednesday:
		return "Wed"
	case Thursday:
		return "Thu"
	case Friday:
		return "Fri"
	case Saturday:
		return "Sat"
	default:
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
}

type Kind int

const (
	Never Kind = iota
	Daily
	Weekly
	Monthly
	Yearly
	IntervalMinutes
)

func (k Kind) String() string {
	switch k {
	case Never:
		return "never"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	case IntervalMinutes:
		return "interval"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Rule is one repetition shape. Construct through the New* functions;
// the zero value is a valid Never rule.
type Rule struct {
	Kind Kind `json:"kind"`

	// Weekly only. Never empty once committed.
	Weekdays []Weekday `json:"weekdays,omitempty"`

	// Monthly and Yearly: day of month 1..31. Days past a month's length
	// simply never match that month.
	Day int `json:"day,omitempty"`

	// Yearly only: month 1..12.
	Month time.Month `json:"month,omitempty"`

	// IntervalMinutes only: positive minute count.
	Minutes int `json:"minutes,omitempty"`
}

func NewNever() Rule { return Rule{Kind: Never} }

func NewDaily() Rule { return Rule{Kind: Daily} }

func NewWeekly(days ...Weekday) (Rule, error) {
	if len(days) == 0 {
		return Rule{}, fmt.Errorf("%w: weekly rule needs at least one weekday", ErrInvalidRule)
	}
	seen := map[Weekday]bool{}
	out := make([]Weekday, 0, len(days))
	for _, d := range days {
		if !d.Valid() {
			return Rule{}, fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, int(d))
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return Rule{Kind: Weekly, Weekdays: out}, nil
}

func NewMonthly(day int) (Rule, error) {
	if day < 1 || day > 31 {
		return Rule{}, fmt.Errorf("%w: day of month %d out of range 1..31", ErrInvalidRule, day)
	}
	return Rule{Kind: Monthly, Day: day}, nil
}

func NewYearly(month time.Month, day int) (Rule, error) {
	if month < time.January || month > time.December {
		return Rule{}, fmt.Errorf("%w: month %d out of range 1..12", ErrInvalidRule, int(month))
	}
	if day < 1 || day > 31 {
		return Rule{}, fmt.Errorf("%w: day of month %d out of range 1..31", ErrInvalidRule, day)
	}
	return Rule{Kind: Yearly, Month: month, Day: day}, nil
}

func NewEveryMinutes(n int) (Rule, error) {
	if n <= 0 {
		return Rule{}, fmt.Errorf("%w: interval must be a positive minute count, got %d", ErrInvalidRule, n)
	}
	return Rule{Kind: IntervalMinutes, Minutes: n}, nil
}

// Validate re-checks a rule that arrived from outside a constructor
// (deserialized from storage or config).
func (r Rule) Validate() error {
	switch r.Kind {
	case Never, Daily:
		return nil
	case Weekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly rule needs at least one weekday", ErrInvalidRule)
		}
		for _, d := range r.Weekdays {
			if !d.Valid() {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, int(d))
			}
		}
		return nil
	case Monthly:
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("%w: day of month %d out of range 1..31", ErrInvalidRule, r.Day)
		}
		return nil
	case Yearly:
		if r.Month < time.January || r.Month > time.December {
			return fmt.Errorf("%w: month %d out of range 1..12", ErrInvalidRule, int(r.Month))
		}
		if r.Day < 1 || r.Day > 31 {
			return fmt.Errorf("%w: day of month %d out of range 1..31", ErrInvalidRule, r.Day)
		}
		return nil
	case IntervalMinutes:
		if r.Minutes <= 0 {
			return fmt.Errorf("%w: interval must be a positive minute count, got %d", ErrInvalidRule, r.Minutes)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidRule, int(r.Kind))
	}
}

// Repeats reports whether the rule fires more than once.
func (r Rule) Repeats() bool { return r.Kind != Never }

// WeekdaySet returns the weekly payload as a set. Empty for other kinds.
func (r Rule) WeekdaySet() map[Weekday]bool {
	set := make(map[Weekday]bool, len(r.Weekdays))
	for _, d := range r.Weekdays {
		set[d] = true
	}
	return set
}

// Same is structural equality; a Weekly set compares order-independent.
func (r Rule) Same(other Rule) bool {
	if r.Kind != other.Kind {
		return false
	}
	switch r.Kind {
	case Never, Daily:
		return true
	case Weekly:
		a, b := r.WeekdaySet(), other.WeekdaySet()
		if len(a) != len(b) {
			return false
		}
		for d := range a {
			if !b[d] {
				return false
			}
		}
		return true
	case Monthly:
		return r.Day == other.Day
	case Yearly:
		return r.Month == other.Month && r.Day == other.Day
	case IntervalMinutes:
		return r.Minutes == other.Minutes
	default:
		return false
	}
}

var (
	workdays = map[Weekday]bool{Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true}
	weekends = map[Weekday]bool{Saturday: true, Sunday: true}
)

func sameSet(a, b map[Weekday]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for d := range a {
		if !b[d] {
			return false
		}
	}
	return true
}

// Describe renders the rule for humans.
func (r Rule) Describe() string {
	switch r.Kind {
	case Never:
		return "does not repeat"
	case Daily:
		return "every day"
	case Weekly:
		set := r.WeekdaySet()
		switch {
		case sameSet(set, workdays):
			return "workdays (Mon-Fri)"
		case sameSet(set, weekends):
			return "weekends (Sat-Sun)"
		case len(set) == 7:
			return "every day"
		}
		days := append([]Weekday(nil), r.Weekdays...)
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = d.String()
		}
		return "weekly on " + strings.Join(names, ", ")
	case Monthly:
		return fmt.Sprintf("monthly on day %d", r.Day)
	case Yearly:
		return fmt.Sprintf("every year on %s %d", r.Month.String()[:3], r.Day)
	case IntervalMinutes:
		return "every " + formatMinutes(r.Minutes)
	default:
		return "unknown"
	}
}

func formatMinutes(n int) string {
	if n <= 0 {
		return "custom interval"
	}
	if n%60 == 0 {
		return fmt.Sprintf("%dh", n/60)
	}
	if n > 60 {
		return fmt.Sprintf("%dh%dm", n/60, n%60)
	}
	return fmt.Sprintf("%dm", n)
}

// Interval returns the minute payload as a duration; zero for other kinds.
func (r Rule) Interval() time.Duration {
	if r.Kind != IntervalMinutes {
		return 0
	}
	return time.Duration(r.Minutes) * time.Minute
}

// Presets are the quick picks offered by callers. The engine does not
// consult them.
func Presets() []Rule {
	workdaysRule, _ := NewWeekly(Monday, Tuesday, Wednesday, Thursday, Friday)
	weekendsRule, _ := NewWeekly(Saturday, Sunday)
	monthlyFirst, _ := NewMonthly(1)
	yearlyNewYear, _ := NewYearly(time.January, 1)
	halfHour, _ := NewEveryMinutes(30)
	return []Rule{
		NewNever(),
		NewDaily(),
		halfHour,
		workdaysRule,
		weekendsRule,
		monthlyFirst,
		yearlyNewYear,
	}
}

package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// RFC 5545 interop. Calendar exports and imports speak RRULE; the engine
// itself never evaluates rules through this path, so the documented search
// semantics stay exact.

func toRRuleWeekday(w Weekday) (rrule.Weekday, error) {
	switch w {
	case Sunday:
		return rrule.SU, nil
	case Monday:
		return rrule.MO, nil
	case Tuesday:
		return rrule.TU, nil
	case Wednesday:
		return rrule.WE, nil
	case Thursday:
		return rrule.TH, nil
	case Friday:
		return rrule.FR, nil
	case Saturday:
		return rrule.SA, nil
	default:
		return rrule.Weekday{}, fmt.Errorf("%w: weekday %d out of range", ErrInvalidRule, int(w))
	}
}

func fromRRuleWeekday(w rrule.Weekday) (Weekday, error) {
	switch w.Day() {
	case rrule.MO.Day():
		return Monday, nil
	case rrule.TU.Day():
		return Tuesday, nil
	case rrule.WE.Day():
		return Wednesday, nil
	case rrule.TH.Day():
		return Thursday, nil
	case rrule.FR.Day():
		return Friday, nil
	case rrule.SA.Day():
		return Saturday, nil
	case rrule.SU.Day():
		return Sunday, nil
	default:
		return 0, fmt.Errorf("%w: unmappable RRULE weekday", ErrInvalidRule)
	}
}

// RRule renders the rule as an RFC 5545 RRULE value ("FREQ=...").
// A Never rule exports as a single-occurrence daily rule.
func (r Rule) RRule() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	opt := rrule.ROption{}
	switch r.Kind {
	case Never:
		opt.Freq = rrule.DAILY
		opt.Count = 1
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		for _, d := range r.Weekdays {
			wd, err := toRRuleWeekday(d)
			if err != nil {
				return "", err
			}
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	case Monthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday = []int{r.Day}
	case Yearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(r.Month)}
		opt.Bymonthday = []int{r.Day}
	case IntervalMinutes:
		opt.Freq = rrule.MINUTELY
		opt.Interval = r.Minutes
	default:
		return "", fmt.Errorf("%w: unknown kind %d", ErrInvalidRule, int(r.Kind))
	}
	return opt.String(), nil
}

// FromRRule parses an RFC 5545 RRULE value back into a Rule. Only the
// shapes this engine supports round-trip; anything else is rejected.
func FromRRule(s string) (Rule, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	switch opt.Freq {
	case rrule.DAILY:
		if opt.Count == 1 {
			return NewNever(), nil
		}
		if opt.Count != 0 || opt.Interval > 1 {
			return Rule{}, fmt.Errorf("%w: unsupported daily options in %q", ErrInvalidRule, s)
		}
		return NewDaily(), nil
	case rrule.WEEKLY:
		if len(opt.Byweekday) == 0 {
			return Rule{}, fmt.Errorf("%w: weekly RRULE without BYDAY in %q", ErrInvalidRule, s)
		}
		days := make([]Weekday, 0, len(opt.Byweekday))
		for _, wd := range opt.Byweekday {
			d, err := fromRRuleWeekday(wd)
			if err != nil {
				return Rule{}, err
			}
			days = append(days, d)
		}
		return NewWeekly(days...)
	case rrule.MONTHLY:
		if len(opt.Bymonthday) != 1 {
			return Rule{}, fmt.Errorf("%w: monthly RRULE needs exactly one BYMONTHDAY in %q", ErrInvalidRule, s)
		}
		return NewMonthly(opt.Bymonthday[0])
	case rrule.YEARLY:
		if len(opt.Bymonth) != 1 || len(opt.Bymonthday) != 1 {
			return Rule{}, fmt.Errorf("%w: yearly RRULE needs BYMONTH and BYMONTHDAY in %q", ErrInvalidRule, s)
		}
		return NewYearly(time.Month(opt.Bymonth[0]), opt.Bymonthday[0])
	case rrule.MINUTELY:
		n := opt.Interval
		if n == 0 {
			n = 1
		}
		return NewEveryMinutes(n)
	default:
		return Rule{}, fmt.Errorf("%w: unsupported frequency in %q", ErrInvalidRule, s)
	}
}

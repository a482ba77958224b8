package rule

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestConstructorsReject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		make func() (Rule, error)
	}{
		{"weekly empty", func() (Rule, error) { return NewWeekly() }},
		{"weekly out of range low", func() (Rule, error) { return NewWeekly(Weekday(0)) }},
		{"weekly out of range high", func() (Rule, error) { return NewWeekly(Weekday(8)) }},
		{"monthly day 0", func() (Rule, error) { return NewMonthly(0) }},
		{"monthly day 32", func() (Rule, error) { return NewMonthly(32) }},
		{"yearly month 13", func() (Rule, error) { return NewYearly(time.Month(13), 1) }},
		{"yearly day 0", func() (Rule, error) { return NewYearly(time.June, 0) }},
		{"interval zero", func() (Rule, error) { return NewEveryMinutes(0) }},
		{"interval negative", func() (Rule, error) { return NewEveryMinutes(-5) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.make(); !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("got %v, want ErrInvalidRule", err)
			}
		})
	}
}

func TestWeeklyDedupesAndSorts(t *testing.T) {
	t.Parallel()
	r, err := NewWeekly(Friday, Monday, Friday, Wednesday)
	if err != nil {
		t.Fatalf("NewWeekly: %v", err)
	}
	want := []Weekday{Monday, Wednesday, Friday}
	if len(r.Weekdays) != len(want) {
		t.Fatalf("got %v, want %v", r.Weekdays, want)
	}
	for i, d := range want {
		if r.Weekdays[i] != d {
			t.Fatalf("got %v, want %v", r.Weekdays, want)
		}
	}
}

func TestSame(t *testing.T) {
	t.Parallel()
	mondayFirst, _ := NewWeekly(Monday, Friday)
	fridayFirst, _ := NewWeekly(Friday, Monday)
	tuesdays, _ := NewWeekly(Tuesday)
	day5, _ := NewMonthly(5)
	day6, _ := NewMonthly(6)

	tests := []struct {
		name string
		a, b Rule
		want bool
	}{
		{"never vs never", NewNever(), NewNever(), true},
		{"never vs daily", NewNever(), NewDaily(), false},
		{"weekly order-independent", mondayFirst, fridayFirst, true},
		{"weekly different sets", mondayFirst, tuesdays, false},
		{"monthly same day", day5, day5, true},
		{"monthly different day", day5, day6, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Same(tc.b); got != tc.want {
				t.Fatalf("Same() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	workdaysRule, _ := NewWeekly(Monday, Tuesday, Wednesday, Thursday, Friday)
	weekendsRule, _ := NewWeekly(Saturday, Sunday)
	monFri, _ := NewWeekly(Monday, Friday)
	day15, _ := NewMonthly(15)
	every90, _ := NewEveryMinutes(90)
	every60, _ := NewEveryMinutes(60)

	tests := []struct {
		rule Rule
		want string
	}{
		{NewNever(), "does not repeat"},
		{NewDaily(), "every day"},
		{workdaysRule, "workdays (Mon-Fri)"},
		{weekendsRule, "weekends (Sat-Sun)"},
		{monFri, "weekly on Mon, Fri"},
		{day15, "monthly on day 15"},
		{every90, "every 1h30m"},
		{every60, "every 1h"},
	}
	for _, tc := range tests {
		if got := tc.rule.Describe(); got != tc.want {
			t.Fatalf("Describe(%v) = %q, want %q", tc.rule.Kind, got, tc.want)
		}
	}
}

func TestValidateAfterDecode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid weekly", `{"kind":2,"weekdays":[2,6]}`, false},
		{"weekly without days", `{"kind":2}`, true},
		{"monthly day out of range", `{"kind":3,"day":40}`, true},
		{"interval without minutes", `{"kind":5}`, true},
		{"zero value is never", `{}`, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var r Rule
			if err := json.Unmarshal([]byte(tc.payload), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			err := r.Validate()
			if tc.wantErr && !errors.Is(err, ErrInvalidRule) {
				t.Fatalf("got %v, want ErrInvalidRule", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestInterval(t *testing.T) {
	t.Parallel()
	every45, _ := NewEveryMinutes(45)
	if got := every45.Interval(); got != 45*time.Minute {
		t.Fatalf("Interval() = %v, want 45m", got)
	}
	if got := NewDaily().Interval(); got != 0 {
		t.Fatalf("Interval() on daily = %v, want 0", got)
	}
}

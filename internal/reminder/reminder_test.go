package reminder

import (
	"testing"
	"time"
)

func TestKindScheduling(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kind        Kind
		schedulable bool
		isTimer     bool
	}{
		{KindWater, true, false},
		{KindMedicine, true, false},
		{KindCustom, true, false},
		{KindTodo, false, false},
		{KindTimer, false, true},
	}
	for _, tc := range tests {
		if got := tc.kind.Schedulable(); got != tc.schedulable {
			t.Fatalf("%s.Schedulable() = %v, want %v", tc.kind, got, tc.schedulable)
		}
		if got := tc.kind.IsTimer(); got != tc.isTimer {
			t.Fatalf("%s.IsTimer() = %v, want %v", tc.kind, got, tc.isTimer)
		}
	}
}

func TestTimeOfDayOn(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatal(err)
	}
	day := time.Date(2025, time.March, 10, 23, 45, 12, 999, loc)

	got := At(9, 30).On(day)
	want := time.Date(2025, time.March, 10, 9, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("On() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Fatalf("On() must keep the day's location, got %v", got.Location())
	}
}

func TestTimeOfDayString(t *testing.T) {
	t.Parallel()
	if got := At(7, 5).String(); got != "07:05" {
		t.Fatalf("String() = %q, want 07:05", got)
	}
}

func TestLogActionFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		resp Response
		want LogAction
	}{
		{ResponseCompleted, LogCompleted},
		{ResponseSnoozed, LogSnoozed},
		{ResponseSkipped, LogSkipped},
		{ResponseAcknowledged, LogAcknowledged},
		{Response("unknown"), LogAcknowledged},
	}
	for _, tc := range tests {
		if got := LogActionFor(tc.resp); got != tc.want {
			t.Fatalf("LogActionFor(%s) = %s, want %s", tc.resp, got, tc.want)
		}
	}
}

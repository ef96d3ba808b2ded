package attendance

import (
	"errors"
	"testing"
	"time"
)

func TestNextActionNoRecord(t *testing.T) {
	action, err := NextAction(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ActionClockIn {
		t.Fatalf("expected clock-in, got %v", action)
	}
}

func TestNextActionOpenRecord(t *testing.T) {
	rec := &Record{ClockIn: time.Now(), Status: StatusPresent}
	action, err := NextAction(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action != ActionClockOut {
		t.Fatalf("expected clock-out, got %v", action)
	}
}

func TestNextActionCompletedRecord(t *testing.T) {
	out := time.Now()
	rec := &Record{ClockIn: out.Add(-8 * time.Hour), ClockOut: &out, Status: StatusCompleted}
	if _, err := NextAction(rec); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestWorkDateKeepsLocalCalendarDay(t *testing.T) {
	// 20:00 in UTC-5 is 01:00 the next day in UTC; the work date must still
	// be the caller's calendar day.
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, loc)

	got := WorkDate(now)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWorkDateUTCNoon(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 30, 0, 0, time.UTC)
	want := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	if got := WorkDate(now); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestWorked(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 30*time.Minute)
	if got := Worked(in, out); got != 8*time.Hour+30*time.Minute {
		t.Fatalf("got %v", got)
	}
}

func TestWorkedNeverNegative(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if got := Worked(in, in.Add(-time.Hour)); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

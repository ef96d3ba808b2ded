package attendance

import (
	"errors"
	"time"
)

var (
	ErrAlreadyCompleted = errors.New("attendance already completed for today")
	ErrDuplicateClock   = errors.New("attendance already recorded for today")
	ErrRecordNotFound   = errors.New("attendance record not found")
)

type Action int

const (
	ActionClockIn Action = iota
	ActionClockOut
)

// WorkDate normalizes a timestamp to the calendar day it falls on in its own
// location. The result is midnight UTC of that calendar date, so the DATE
// column stores the day the employee actually clocked on, regardless of the
// host timezone.
func WorkDate(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextAction decides the clock transition for (employee, today). The machine
// has exactly three states: no record, open record, completed record.
// Completed is terminal.
func NextAction(existing *Record) (Action, error) {
	if existing == nil {
		return ActionClockIn, nil
	}
	if existing.ClockOut == nil {
		return ActionClockOut, nil
	}
	return 0, ErrAlreadyCompleted
}

// Worked returns the elapsed time between clock-in and clock-out, never
// negative.
func Worked(clockIn, clockOut time.Time) time.Duration {
	if clockOut.Before(clockIn) {
		return 0
	}
	return clockOut.Sub(clockIn)
}

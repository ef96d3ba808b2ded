package leave

import (
	"errors"
	"time"
)

var (
	ErrRequestNotFound = errors.New("leave request not found")
	ErrInvalidRange    = errors.New("end date cannot be before start date")
	ErrInvalidStatus   = errors.New("invalid leave status")
)

func ValidateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidRange
	}
	return nil
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

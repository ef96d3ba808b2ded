package leave

import (
	"errors"
	"testing"
	"time"
)

func TestValidateRange(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateRange(start, start); err != nil {
		t.Fatalf("same-day leave should be valid, got %v", err)
	}
	if err := ValidateRange(start, start.AddDate(0, 0, 5)); err != nil {
		t.Fatalf("forward range should be valid, got %v", err)
	}
	if err := ValidateRange(start, start.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range []string{StatusPending, StatusApproved, StatusRejected} {
		if !ValidStatus(status) {
			t.Errorf("expected %q to be valid", status)
		}
	}
	if ValidStatus("Cancelled") {
		t.Error("Cancelled is not a known status")
	}
}

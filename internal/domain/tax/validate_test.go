package tax

import (
	"errors"
	"testing"
	"time"
)

func TestValidatePercentage(t *testing.T) {
	for _, pct := range []float64{0, 15, 100} {
		if err := ValidatePercentage(pct); err != nil {
			t.Errorf("percentage %v should be valid: %v", pct, err)
		}
	}
	for _, pct := range []float64{-1, 100.5} {
		if err := ValidatePercentage(pct); !errors.Is(err, ErrInvalidPercentage) {
			t.Errorf("percentage %v should be rejected, got %v", pct, err)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(0); err != nil {
		t.Fatalf("zero amount should be valid: %v", err)
	}
	if err := ValidateAmount(-0.01); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestValidateYear(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for _, year := range []int{2000, 2024, 2025} {
		if err := ValidateYear(year, now); err != nil {
			t.Errorf("year %d should be valid: %v", year, err)
		}
	}
	for _, year := range []int{1999, 2026} {
		if err := ValidateYear(year, now); err == nil {
			t.Errorf("year %d should be rejected", year)
		}
	}
}

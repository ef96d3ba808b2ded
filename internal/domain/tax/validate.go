package tax

import (
	"errors"
	"fmt"
	"time"
)

const minYear = 2000

var (
	ErrRecordNotFound    = errors.New("tax record not found")
	ErrDuplicateYear     = errors.New("tax record already exists for this employee and year")
	ErrInvalidPercentage = errors.New("tax percentage must be between 0 and 100")
	ErrNegativeAmount    = errors.New("tax amount cannot be negative")
)

func ValidatePercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return ErrInvalidPercentage
	}
	return nil
}

func ValidateAmount(amount float64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// ValidateYear bounds the tax year to [2000, current year + 1]; next year is
// allowed so records can be prepared ahead of time.
func ValidateYear(year int, now time.Time) error {
	maxYear := now.Year() + 1
	if year < minYear || year > maxYear {
		return fmt.Errorf("year must be between %d and %d", minYear, maxYear)
	}
	return nil
}

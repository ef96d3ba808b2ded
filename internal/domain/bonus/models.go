package bonus

import (
	"errors"
	"time"
)

var (
	ErrRecordNotFound   = errors.New("bonus not found")
	ErrNonPositiveBonus = errors.New("bonus amount must be greater than zero")
)

type Record struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employeeId"`
	Amount     float64   `json:"amount"`
	BonusDate  time.Time `json:"bonusDate"`
	Reason     string    `json:"reason"`
}

type RecordPatch struct {
	EmployeeID *int64
	Amount     *float64
	Reason     *string
}

func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return ErrNonPositiveBonus
	}
	return nil
}

package payroll

import "errors"

var ErrRecordNotFound = errors.New("payroll record not found")

// ComputeTotal is the single source of truth for total pay:
// base + overtime + bonuses - deductions.
func ComputeTotal(baseSalary, overtime, bonuses, deductions float64) float64 {
	return baseSalary + overtime + bonuses - deductions
}

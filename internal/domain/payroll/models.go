package payroll

import "time"

type Record struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employeeId"`
	PayDate    time.Time `json:"payDate"`
	BaseSalary float64   `json:"baseSalary"`
	Overtime   float64   `json:"overtime"`
	Deductions float64   `json:"deductions"`
	Bonuses    float64   `json:"bonuses"`
	TotalPay   float64   `json:"totalPay"`
}

type RecordParams struct {
	EmployeeID int64
	PayDate    time.Time
	BaseSalary float64
	Overtime   float64
	Deductions float64
	Bonuses    float64
}

type RecordPatch struct {
	EmployeeID *int64
	PayDate    *time.Time
	BaseSalary *float64
	Overtime   *float64
	Deductions *float64
	Bonuses    *float64
}

// TouchesComponents reports whether the patch changes any of the four pay
// inputs, which forces a total recomputation.
func (p RecordPatch) TouchesComponents() bool {
	return p.BaseSalary != nil || p.Overtime != nil || p.Deductions != nil || p.Bonuses != nil
}

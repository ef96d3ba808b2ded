package tax

type Record struct {
	ID            int64   `json:"id"`
	EmployeeID    int64   `json:"employeeId"`
	TaxPercentage float64 `json:"taxPercentage"`
	TaxAmount     float64 `json:"taxAmount"`
	Year          int     `json:"year"`
}

type RecordParams struct {
	EmployeeID    int64
	TaxPercentage float64
	TaxAmount     float64
	Year          int
}

type RecordPatch struct {
	EmployeeID    *int64
	TaxPercentage *float64
	TaxAmount     *float64
	Year          *int
}

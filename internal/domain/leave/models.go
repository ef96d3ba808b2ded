package leave

import "time"

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

type Request struct {
	ID              int64     `json:"id"`
	EmployeeID      int64     `json:"employeeId"`
	LeaveType       string    `json:"leaveType"`
	ApplicationDate time.Time `json:"applicationDate"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Status          string    `json:"status"`
}

type RequestParams struct {
	EmployeeID int64
	LeaveType  string
	StartDate  time.Time
	EndDate    time.Time
	Status     string
}

type RequestPatch struct {
	EmployeeID *int64
	LeaveType  *string
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *string
}

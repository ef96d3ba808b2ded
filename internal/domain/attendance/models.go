package attendance

import "time"

const (
	StatusPresent   = "Present"
	StatusLate      = "Late"
	StatusCompleted = "Completed"
	StatusLeave     = "Leave"
)

type Record struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employeeId"`
	WorkDate   time.Time  `json:"workDate"`
	ClockIn    time.Time  `json:"clockIn"`
	ClockOut   *time.Time `json:"clockOut,omitempty"`
	Status     string     `json:"status"`
}

// ClockResult reports which transition a clock event performed.
type ClockResult struct {
	Record  Record
	Created bool
	Worked  time.Duration
}

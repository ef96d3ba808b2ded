package directory

import "time"

type Employee struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	DateOfBirth  time.Time `json:"dateOfBirth"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Gender       string    `json:"gender"`
	Address      string    `json:"address"`
	HireDate     time.Time `json:"hireDate"`
	Position     string    `json:"position"`
	Salary       float64   `json:"salary"`
	DepartmentID *int64    `json:"departmentId,omitempty"`
	SupervisorID *int64    `json:"supervisorId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type Department struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ManagerID     *int64 `json:"managerId,omitempty"`
	EmployeeCount int    `json:"employeeCount"`
}

type EmployeeParams struct {
	FirstName    string
	LastName     string
	DateOfBirth  time.Time
	Phone        string
	Email        string
	Gender       string
	Address      string
	HireDate     time.Time
	Position     string
	Salary       float64
	DepartmentID *int64
	SupervisorID *int64
}

// EmployeePatch carries only the fields present in a partial update.
type EmployeePatch struct {
	FirstName    *string
	LastName     *string
	DateOfBirth  *time.Time
	Phone        *string
	Email        *string
	Gender       *string
	Address      *string
	HireDate     *time.Time
	Position     *string
	Salary       *float64
	DepartmentID *int64
	SupervisorID *int64
}

package auth

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	EmployeeID   int64     `json:"employeeId"`
	MFAEnabled   bool      `json:"mfaEnabled"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterParams struct {
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
	Username     string
	PasswordHash string
	Role         string
	DepartmentID *int64
}

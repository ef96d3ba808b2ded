package directory

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrDepartmentNameTaken = errors.New("department name already exists")
	ErrDepartmentNotEmpty  = errors.New("department still has assigned employees")
	ErrManagerElsewhere    = errors.New("employee already manages another department")
	ErrEmailTaken          = errors.New("email address already exists")
)

package auth

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email address already exists")
	ErrPhoneTaken           = errors.New("phone number already exists")
	ErrDepartmentNotFound   = errors.New("department not found")
	ErrDepartmentHasManager = errors.New("department already has a manager")
	ErrManagerElsewhere     = errors.New("employee already manages another department")
)

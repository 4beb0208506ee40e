package core

import "errors"

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrEmailTaken         = errors.New("employee email already taken")
	ErrDepartmentTaken    = errors.New("department name already taken")
	ErrNegativeSalary     = errors.New("base salary must not be negative")
)

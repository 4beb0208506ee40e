package payroll

import "errors"

var (
	ErrInvalidPeriod    = errors.New("period end before period start")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrRunNotFound      = errors.New("payroll run not found")
	ErrItemNotFound     = errors.New("payroll item not found")
	ErrEntryNotFound    = errors.New("allowance or deduction not found")
	ErrEmployeeNotFound = errors.New("employee not found")
)

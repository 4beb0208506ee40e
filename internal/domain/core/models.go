package core

import "time"

type Employee struct {
	ID             string     `json:"id"`
	FullName       string     `json:"fullName"`
	Email          string     `json:"email"`
	JobTitle       string     `json:"jobTitle"`
	HireDate       *time.Time `json:"hireDate,omitempty"`
	BaseSalary     string     `json:"baseSalary"`
	DepartmentID   *string    `json:"departmentId,omitempty"`
	DepartmentName string     `json:"departmentName,omitempty"`

	// BaseSalaryCents is the storage representation; BaseSalary is its
	// formatted form for API consumers.
	BaseSalaryCents int64 `json:"-"`
}

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type EmployeeInput struct {
	FullName        string
	Email           string
	JobTitle        string
	HireDate        *time.Time
	BaseSalaryCents int64
	DepartmentID    *string
}

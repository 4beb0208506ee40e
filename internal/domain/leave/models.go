package leave

import "time"

type Request struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	LeaveType    string     `json:"leaveType"`
	DateFrom     time.Time  `json:"dateFrom"`
	DateTo       time.Time  `json:"dateTo"`
	Reason       *string    `json:"reason,omitempty"`
	Status       string     `json:"status"`
	DecidedBy    *string    `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type RequestInput struct {
	EmployeeID string  `json:"employeeId"`
	LeaveType  string  `json:"leaveType"`
	DateFrom   string  `json:"dateFrom"`
	DateTo     string  `json:"dateTo"`
	Reason     *string `json:"reason,omitempty"`
}

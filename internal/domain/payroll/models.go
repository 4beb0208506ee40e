package payroll

import "time"

type Run struct {
	ID          string    `json:"id"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedBy   *string   `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Item is a write-once snapshot of one employee's pay for one run. A wrong
// item is corrected by a new run, never by mutation.
type Item struct {
	ID           string    `json:"id"`
	RunID        string    `json:"runId"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName,omitempty"`
	BaseSalary   string    `json:"baseSalary"`
	Allowances   string    `json:"allowances"`
	Deductions   string    `json:"deductions"`
	NetPay       string    `json:"netPay"`
	GeneratedAt  time.Time `json:"generatedAt"`

	BaseSalaryCents int64 `json:"-"`
	AllowanceCents  int64 `json:"-"`
	DeductionCents  int64 `json:"-"`
	NetCents        int64 `json:"-"`
}

type Allowance struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	Name        string    `json:"name"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"-"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Deduction struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	Name        string    `json:"name"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"-"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EmployeeSnapshot is one employee's pay inputs as read inside the run
// transaction: base salary plus the sums of currently active allowances and
// deductions, all in cents.
type EmployeeSnapshot struct {
	EmployeeID      string
	BaseSalaryCents int64
	AllowanceCents  int64
	DeductionCents  int64
}

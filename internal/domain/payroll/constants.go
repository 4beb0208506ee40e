package payroll

const (
	StatusDraft  = "draft"
	StatusPosted = "posted"
)

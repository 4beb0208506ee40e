package payroll

import (
	"context"
	"time"
)

// RunStore opens the transaction a payroll run executes in.
type RunStore interface {
	BeginRun(ctx context.Context) (RunTx, error)
}

// RunTx is the unit of work for one payroll run. Nothing is visible to other
// transactions until Commit; any error path must end in Rollback so a run is
// never left half-populated.
type RunTx interface {
	InsertRun(ctx context.Context, periodStart, periodEnd time.Time, createdBy string, notes *string) (string, error)
	EmployeeSnapshots(ctx context.Context) ([]EmployeeSnapshot, error)
	InsertItem(ctx context.Context, runID string, item Item) error
	MarkRunPosted(ctx context.Context, runID string) error
	RecordAudit(ctx context.Context, actorID, runID string, meta any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

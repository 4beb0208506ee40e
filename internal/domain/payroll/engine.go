package payroll

import (
	"context"
	"fmt"
	"time"
)

// Engine computes and persists payroll runs. Authorization is the caller's
// concern: by the time Run is invoked the actor has already been checked for
// admin or payroll.run.
type Engine struct {
	store RunStore
}

func NewEngine(store RunStore) *Engine {
	return &Engine{store: store}
}

// Run snapshots every employee into one immutable pay item and posts the run,
// all inside a single transaction: either the header, every item, the posted
// status and the audit record land together, or none of them do. A failed run
// is retried as a brand-new run; there is no partial recovery.
func (e *Engine) Run(ctx context.Context, periodStart, periodEnd time.Time, actorID string, notes string) (Run, error) {
	if periodEnd.Before(periodStart) {
		return Run{}, ErrInvalidPeriod
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	tx, err := e.store.BeginRun(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("begin payroll run: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	runID, err := tx.InsertRun(ctx, periodStart, periodEnd, actorID, notesPtr)
	if err != nil {
		return Run{}, fmt.Errorf("insert run header: %w", err)
	}

	snapshots, err := tx.EmployeeSnapshots(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("snapshot employees: %w", err)
	}

	for _, snap := range snapshots {
		if err := tx.InsertItem(ctx, runID, ComputeItem(snap)); err != nil {
			return Run{}, fmt.Errorf("insert item for employee %s: %w", snap.EmployeeID, err)
		}
	}

	if err := tx.MarkRunPosted(ctx, runID); err != nil {
		return Run{}, fmt.Errorf("post run: %w", err)
	}

	meta := map[string]any{
		"periodStart": periodStart.Format("2006-01-02"),
		"periodEnd":   periodEnd.Format("2006-01-02"),
		"status":      StatusPosted,
	}
	if err := tx.RecordAudit(ctx, actorID, runID, meta); err != nil {
		return Run{}, fmt.Errorf("record audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Run{}, fmt.Errorf("commit payroll run: %w", err)
	}

	return Run{
		ID:          runID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      StatusPosted,
		Notes:       notesPtr,
		CreatedBy:   &actorID,
	}, nil
}

package payroll

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrlite/internal/domain/audit"
)

type Store struct {
	Pool  *pgxpool.Pool
	Audit *audit.Recorder
}

func NewStore(pool *pgxpool.Pool, recorder *audit.Recorder) *Store {
	return &Store{Pool: pool, Audit: recorder}
}

// BeginRun opens the run transaction at repeatable read so the employee
// snapshot cannot see phantom employees added mid-run.
func (s *Store) BeginRun(ctx context.Context) (RunTx, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, err
	}
	return &runTx{tx: tx, audit: s.Audit}, nil
}

type runTx struct {
	tx    pgx.Tx
	audit *audit.Recorder
}

func (t *runTx) InsertRun(ctx context.Context, periodStart, periodEnd time.Time, createdBy string, notes *string) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO payroll_runs (period_start, period_end, status, notes, created_by)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, periodStart, periodEnd, StatusDraft, notes, createdBy).Scan(&id)
	return id, err
}

func (t *runTx) EmployeeSnapshots(ctx context.Context) ([]EmployeeSnapshot, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT e.id, e.base_salary_cents,
           COALESCE((SELECT SUM(a.amount_cents) FROM allowances a WHERE a.employee_id = e.id AND a.active), 0),
           COALESCE((SELECT SUM(d.amount_cents) FROM deductions d WHERE d.employee_id = e.id AND d.active), 0)
    FROM employees e
    ORDER BY e.full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []EmployeeSnapshot
	for rows.Next() {
		var snap EmployeeSnapshot
		if err := rows.Scan(&snap.EmployeeID, &snap.BaseSalaryCents, &snap.AllowanceCents, &snap.DeductionCents); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (t *runTx) InsertItem(ctx context.Context, runID string, item Item) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO payroll_items (run_id, employee_id, base_salary_cents, allowances_cents, deductions_cents, net_pay_cents)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, runID, item.EmployeeID, item.BaseSalaryCents, item.AllowanceCents, item.DeductionCents, item.NetCents)
	return err
}

func (t *runTx) MarkRunPosted(ctx context.Context, runID string) error {
	_, err := t.tx.Exec(ctx, "UPDATE payroll_runs SET status = $1 WHERE id = $2", StatusPosted, runID)
	return err
}

func (t *runTx) RecordAudit(ctx context.Context, actorID, runID string, meta any) error {
	entity := "payroll_run"
	return t.audit.Record(ctx, t.tx, &actorID, "payroll.run", &entity, &runID, meta)
}

func (t *runTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *runTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

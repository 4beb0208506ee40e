package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrlite/internal/money"
)

func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT id, period_start, period_end, status, notes, created_by, created_at
    FROM payroll_runs
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd, &run.Status, &run.Notes, &run.CreatedBy, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	var run Run
	err := s.Pool.QueryRow(ctx, `
    SELECT id, period_start, period_end, status, notes, created_by, created_at
    FROM payroll_runs
    WHERE id = $1
  `, runID).Scan(&run.ID, &run.PeriodStart, &run.PeriodEnd, &run.Status, &run.Notes, &run.CreatedBy, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) ListItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT i.id, i.run_id, i.employee_id, e.full_name,
           i.base_salary_cents, i.allowances_cents, i.deductions_cents, i.net_pay_cents, i.generated_at
    FROM payroll_items i
    JOIN employees e ON i.employee_id = e.id
    WHERE i.run_id = $1
    ORDER BY e.full_name
  `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.RunID, &item.EmployeeID, &item.EmployeeName,
			&item.BaseSalaryCents, &item.AllowanceCents, &item.DeductionCents, &item.NetCents, &item.GeneratedAt); err != nil {
			return nil, err
		}
		formatItem(&item)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) GetItem(ctx context.Context, itemID string) (Item, error) {
	var item Item
	err := s.Pool.QueryRow(ctx, `
    SELECT i.id, i.run_id, i.employee_id, e.full_name,
           i.base_salary_cents, i.allowances_cents, i.deductions_cents, i.net_pay_cents, i.generated_at
    FROM payroll_items i
    JOIN employees e ON i.employee_id = e.id
    WHERE i.id = $1
  `, itemID).Scan(&item.ID, &item.RunID, &item.EmployeeID, &item.EmployeeName,
		&item.BaseSalaryCents, &item.AllowanceCents, &item.DeductionCents, &item.NetCents, &item.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, err
	}
	formatItem(&item)
	return item, nil
}

// UpdateBaseSalary writes the new salary and its audit record in one
// transaction; a salary change with no audit trail must not be possible.
func (s *Store) UpdateBaseSalary(ctx context.Context, actorID *string, employeeID string, cents int64) error {
	if cents < 0 {
		return ErrNegativeAmount
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "UPDATE employees SET base_salary_cents = $1 WHERE id = $2", cents, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	if err := s.auditTx(ctx, tx, actorID, "payroll.salary.update", "employee", employeeID, nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListAllowances(ctx context.Context, employeeID string) ([]Allowance, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT id, employee_id, name, amount_cents, active, created_at
    FROM allowances
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allowances []Allowance
	for rows.Next() {
		var a Allowance
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.Name, &a.AmountCents, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Amount = money.FormatCents(a.AmountCents)
		allowances = append(allowances, a)
	}
	return allowances, rows.Err()
}

func (s *Store) CreateAllowance(ctx context.Context, actorID *string, employeeID, name string, amountCents int64) (string, error) {
	return s.createEntry(ctx, actorID, "allowances", "allowance", employeeID, name, amountCents)
}

func (s *Store) ListDeductions(ctx context.Context, employeeID string) ([]Deduction, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT id, employee_id, name, amount_cents, active, created_at
    FROM deductions
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deductions []Deduction
	for rows.Next() {
		var d Deduction
		if err := rows.Scan(&d.ID, &d.EmployeeID, &d.Name, &d.AmountCents, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Amount = money.FormatCents(d.AmountCents)
		deductions = append(deductions, d)
	}
	return deductions, rows.Err()
}

func (s *Store) CreateDeduction(ctx context.Context, actorID *string, employeeID, name string, amountCents int64) (string, error) {
	return s.createEntry(ctx, actorID, "deductions", "deduction", employeeID, name, amountCents)
}

func (s *Store) SetAllowanceActive(ctx context.Context, actorID *string, id string, active bool) error {
	return s.setEntryActive(ctx, actorID, "allowances", "allowance", id, active)
}

func (s *Store) SetDeductionActive(ctx context.Context, actorID *string, id string, active bool) error {
	return s.setEntryActive(ctx, actorID, "deductions", "deduction", id, active)
}

// createEntry and setEntryActive share SQL across allowances and deductions;
// the table name is always one of the two literals above, never user input.
// Both commit the row change and the audit record together.
func (s *Store) createEntry(ctx context.Context, actorID *string, table, entity, employeeID, name string, amountCents int64) (string, error) {
	if amountCents < 0 {
		return "", ErrNegativeAmount
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO `+table+` (employee_id, name, amount_cents, active)
    VALUES ($1,$2,$3,true)
    RETURNING id
  `, employeeID, name, amountCents).Scan(&id)
	if isForeignKeyViolation(err) {
		return "", ErrEmployeeNotFound
	}
	if err != nil {
		return "", err
	}

	if err := s.auditTx(ctx, tx, actorID, entity+".create", entity, id, nil); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) setEntryActive(ctx context.Context, actorID *string, table, entity, id string, active bool) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "UPDATE "+table+" SET active = $1 WHERE id = $2", active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}

	if err := s.auditTx(ctx, tx, actorID, entity+".toggle", entity, id, map[string]any{"active": active}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) auditTx(ctx context.Context, tx pgx.Tx, actorID *string, action, entity, entityID string, meta any) error {
	if err := s.Audit.Record(ctx, tx, actorID, action, &entity, &entityID, meta); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func formatItem(item *Item) {
	item.BaseSalary = money.FormatCents(item.BaseSalaryCents)
	item.Allowances = money.FormatCents(item.AllowanceCents)
	item.Deductions = money.FormatCents(item.DeductionCents)
	item.NetPay = money.FormatCents(item.NetCents)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

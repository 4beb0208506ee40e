package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrlite/internal/domain/audit"
	"hrlite/internal/money"
)

type Store struct {
	Pool  *pgxpool.Pool
	Audit *audit.Recorder
}

func NewStore(pool *pgxpool.Pool, recorder *audit.Recorder) *Store {
	return &Store{Pool: pool, Audit: recorder}
}

func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT e.id, e.full_name, e.email, e.job_title, e.hire_date,
           e.base_salary_cents, e.department_id, COALESCE(d.name, '')
    FROM employees e
    LEFT JOIN departments d ON e.department_id = d.id
    ORDER BY e.full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		if err := rows.Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.JobTitle, &emp.HireDate,
			&emp.BaseSalaryCents, &emp.DepartmentID, &emp.DepartmentName); err != nil {
			return nil, err
		}
		emp.BaseSalary = money.FormatCents(emp.BaseSalaryCents)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	var emp Employee
	err := s.Pool.QueryRow(ctx, `
    SELECT e.id, e.full_name, e.email, e.job_title, e.hire_date,
           e.base_salary_cents, e.department_id, COALESCE(d.name, '')
    FROM employees e
    LEFT JOIN departments d ON e.department_id = d.id
    WHERE e.id = $1
  `, id).Scan(&emp.ID, &emp.FullName, &emp.Email, &emp.JobTitle, &emp.HireDate,
		&emp.BaseSalaryCents, &emp.DepartmentID, &emp.DepartmentName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	emp.BaseSalary = money.FormatCents(emp.BaseSalaryCents)
	return emp, nil
}

// CreateEmployee inserts the employee and its audit record in one
// transaction; either both rows land or neither does.
func (s *Store) CreateEmployee(ctx context.Context, actorID *string, input EmployeeInput) (string, error) {
	if input.BaseSalaryCents < 0 {
		return "", ErrNegativeSalary
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
    INSERT INTO employees (full_name, email, job_title, hire_date, base_salary_cents, department_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, input.FullName, input.Email, input.JobTitle, input.HireDate, input.BaseSalaryCents, input.DepartmentID).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrEmailTaken
	}
	if isForeignKeyViolation(err) {
		return "", ErrDepartmentNotFound
	}
	if err != nil {
		return "", err
	}

	if err := s.audit(ctx, tx, actorID, "employee.create", "employee", id); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, actorID *string, id string, input EmployeeInput) error {
	if input.BaseSalaryCents < 0 {
		return ErrNegativeSalary
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
    UPDATE employees
    SET full_name = $1, email = $2, job_title = $3, hire_date = $4, base_salary_cents = $5, department_id = $6
    WHERE id = $7
  `, input.FullName, input.Email, input.JobTitle, input.HireDate, input.BaseSalaryCents, input.DepartmentID, id)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if isForeignKeyViolation(err) {
		return ErrDepartmentNotFound
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	if err := s.audit(ctx, tx, actorID, "employee.update", "employee", id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteEmployee(ctx context.Context, actorID *string, id string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	if err := s.audit(ctx, tx, actorID, "employee.delete", "employee", id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.Pool.Query(ctx, "SELECT id, name FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var dep Department
		if err := rows.Scan(&dep.ID, &dep.Name); err != nil {
			return nil, err
		}
		departments = append(departments, dep)
	}
	return departments, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, actorID *string, name string) (string, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id string
	err = tx.QueryRow(ctx, "INSERT INTO departments (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDepartmentTaken
	}
	if err != nil {
		return "", err
	}

	if err := s.audit(ctx, tx, actorID, "department.create", "department", id); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) DeleteDepartment(ctx context.Context, actorID *string, id string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}

	if err := s.audit(ctx, tx, actorID, "department.delete", "department", id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) audit(ctx context.Context, tx pgx.Tx, actorID *string, action, entity, entityID string) error {
	if err := s.Audit.Record(ctx, tx, actorID, action, &entity, &entityID, nil); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

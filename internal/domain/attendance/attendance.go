// Package attendance tracks employee check-ins and check-outs. The core
// invariant is that an employee has at most one open entry (checked in, not
// yet checked out) at any time; the database enforces it with a partial
// unique index so concurrent check-ins cannot race past an application-side
// check.
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOpenExists   = errors.New("employee already has an open attendance entry")
	ErrNoOpen       = errors.New("employee has no open attendance entry")
	ErrEmployeeGone = errors.New("employee not found")
)

type Entry struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	CheckIn    time.Time  `json:"checkIn"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
}

type Store struct {
	Pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// CheckIn opens a new entry. A unique-violation from the partial index on
// open rows surfaces as ErrOpenExists rather than a raw storage error.
func (s *Store) CheckIn(ctx context.Context, employeeID string) (Entry, error) {
	var entry Entry
	err := s.Pool.QueryRow(ctx, `
    INSERT INTO attendance (employee_id, check_in)
    VALUES ($1, now())
    RETURNING id, employee_id, check_in, check_out
  `, employeeID).Scan(&entry.ID, &entry.EmployeeID, &entry.CheckIn, &entry.CheckOut)
	if isUniqueViolation(err) {
		return Entry{}, ErrOpenExists
	}
	if isForeignKeyViolation(err) {
		return Entry{}, ErrEmployeeGone
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// CheckOut closes the newest open entry for the employee.
func (s *Store) CheckOut(ctx context.Context, employeeID string) (Entry, error) {
	var entry Entry
	err := s.Pool.QueryRow(ctx, `
    UPDATE attendance
    SET check_out = now()
    WHERE id = (
      SELECT id FROM attendance
      WHERE employee_id = $1 AND check_out IS NULL
      ORDER BY check_in DESC
      LIMIT 1
    )
    RETURNING id, employee_id, check_in, check_out
  `, employeeID).Scan(&entry.ID, &entry.EmployeeID, &entry.CheckIn, &entry.CheckOut)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNoOpen
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Store) History(ctx context.Context, employeeID string, limit int) ([]Entry, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT id, employee_id, check_in, check_out
    FROM attendance
    WHERE employee_id = $1
    ORDER BY check_in DESC
    LIMIT $2
  `, employeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.CheckIn, &entry.CheckOut); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

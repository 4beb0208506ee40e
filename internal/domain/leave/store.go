package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// Create validates the leave type and date range before any row is written.
func (s *Store) Create(ctx context.Context, employeeID, leaveType string, from, to time.Time, reason *string) (Request, error) {
	if !KnownType(leaveType) {
		return Request{}, ErrUnknownType
	}
	if to.Before(from) {
		return Request{}, ErrInvalidRange
	}

	var req Request
	err := s.Pool.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, date_from, date_to, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, employee_id, leave_type, date_from, date_to, reason, status, created_at
  `, employeeID, leaveType, from, to, reason, StatusPending).
		Scan(&req.ID, &req.EmployeeID, &req.LeaveType, &req.DateFrom, &req.DateTo, &req.Reason, &req.Status, &req.CreatedAt)
	if isForeignKeyViolation(err) {
		return Request{}, ErrEmployeeGone
	}
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Store) List(ctx context.Context, status string, limit, offset int) ([]Request, error) {
	query := `
    SELECT l.id, l.employee_id, e.full_name, l.leave_type, l.date_from, l.date_to,
           l.reason, l.status, l.decided_by, l.decided_at, l.created_at
    FROM leave_requests l
    JOIN employees e ON l.employee_id = e.id
  `
	args := []any{limit, offset}
	if status != "" {
		query += " WHERE l.status = $3"
		args = append(args, status)
	}
	query += " ORDER BY l.created_at DESC LIMIT $1 OFFSET $2"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.EmployeeName, &req.LeaveType, &req.DateFrom, &req.DateTo,
			&req.Reason, &req.Status, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	var req Request
	err := s.Pool.QueryRow(ctx, `
    SELECT l.id, l.employee_id, e.full_name, l.leave_type, l.date_from, l.date_to,
           l.reason, l.status, l.decided_by, l.decided_at, l.created_at
    FROM leave_requests l
    JOIN employees e ON l.employee_id = e.id
    WHERE l.id = $1
  `, id).Scan(&req.ID, &req.EmployeeID, &req.EmployeeName, &req.LeaveType, &req.DateFrom, &req.DateTo,
		&req.Reason, &req.Status, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// Decide moves a pending request to approved or rejected and writes the audit
// record in the same transaction. The status filter in the UPDATE is the
// terminal-state guard: a request that was already decided matches zero rows,
// and the second decision is rejected instead of silently overwriting the
// first.
func (s *Store) Decide(ctx context.Context, requestID, actorID, target string) (Request, error) {
	if target != StatusApproved && target != StatusRejected {
		return Request{}, fmt.Errorf("invalid decision %q", target)
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, decided_by = $2, decided_at = now()
    WHERE id = $3 AND status = $4
  `, target, actorID, requestID, StatusPending)
	if err != nil {
		return Request{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM leave_requests WHERE id = $1)", requestID).Scan(&exists); err != nil {
			return Request{}, err
		}
		if !exists {
			return Request{}, ErrNotFound
		}
		return Request{}, ErrAlreadyDecided
	}

	action := "leave.approve"
	if target == StatusRejected {
		action = "leave.reject"
	}
	entity := "leave_request"
	meta := map[string]any{"decision": target}
	if err := s.Audit.Record(ctx, tx, &actorID, action, &entity, &requestID, meta); err != nil {
		return Request{}, fmt.Errorf("record audit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.Get(ctx, requestID)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

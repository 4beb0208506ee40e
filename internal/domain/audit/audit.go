// Package audit appends immutable event records. A record participates in
// the caller's transaction: if the business write rolls back, so does the
// audit row, and a failed audit write fails the whole operation. There is no
// buffering and no best-effort mode.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Event struct {
	ID        string          `json:"id"`
	ActorID   *string         `json:"actorId,omitempty"`
	Action    string          `json:"action"`
	Entity    *string         `json:"entity,omitempty"`
	EntityID  *string         `json:"entityId,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Filter struct {
	Action string
	Entity string
}

type Recorder struct {
	DB DBTX
}

func New(db DBTX) *Recorder {
	return &Recorder{DB: db}
}

// Record appends one row through db, which may be the pool or an open
// transaction. It never commits; atomicity with the described action is the
// caller's responsibility.
func (r *Recorder) Record(ctx context.Context, db DBTX, actorID *string, action string, entity, entityID *string, meta any) error {
	var metaJSON []byte
	if meta != nil {
		payload, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal audit meta: %w", err)
		}
		metaJSON = payload
	}

	_, err := db.Exec(ctx, `
    INSERT INTO audit_logs (actor_user_id, action, entity, entity_id, meta)
    VALUES ($1,$2,$3,$4,$5)
  `, actorID, action, entity, entityID, metaJSON)
	return err
}

func (r *Recorder) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query := `
    SELECT id, actor_user_id, action, entity, entity_id, meta, created_at
    FROM audit_logs
  `
	args := []any{}
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" WHERE action = $%d", len(args))
	}
	if filter.Entity != "" {
		args = append(args, filter.Entity)
		if len(args) == 1 {
			query += " WHERE"
		} else {
			query += " AND"
		}
		query += fmt.Sprintf(" entity = $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.Entity, &evt.EntityID, &evt.Meta, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

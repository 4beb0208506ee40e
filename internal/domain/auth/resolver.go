package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so permission checks can
// run standalone or inside a caller's transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Resolver answers "does this user hold this permission" by joining role
// assignments against role grants. Every call hits current state: grants can
// change between requests and a stale allow is a security hole, so there is
// deliberately no cache.
type Resolver struct {
	DB DBTX
}

func NewResolver(db DBTX) *Resolver {
	return &Resolver{DB: db}
}

// HasPermission reports whether userID holds the permission code through any
// of its roles. Absence is a normal false, not an error. The admin override
// is the caller's job; this resolver only knows about role grants.
func (r *Resolver) HasPermission(ctx context.Context, userID, code string) (bool, error) {
	var one int
	err := r.DB.QueryRow(ctx, `
    SELECT 1
    FROM user_roles ur
    JOIN role_permissions rp ON rp.role_id = ur.role_id
    JOIN permissions p ON p.id = rp.permission_id
    WHERE ur.user_id = $1 AND p.code = $2
    LIMIT 1
  `, userID, code).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

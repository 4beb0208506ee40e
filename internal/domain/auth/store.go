package auth

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

type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type Role struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type Credentials struct {
	UserID       string
	PasswordHash string
	IsAdmin      bool
	MFAEnabled   bool
	MFASecretEnc []byte
}

type Store struct {
	Pool  *pgxpool.Pool
	Audit *audit.Recorder
}

func NewStore(pool *pgxpool.Pool, recorder *audit.Recorder) *Store {
	return &Store{Pool: pool, Audit: recorder}
}

func (s *Store) FindCredentials(ctx context.Context, username string) (Credentials, error) {
	var out Credentials
	err := s.Pool.QueryRow(ctx, `
    SELECT id, password_hash, is_admin, mfa_enabled, mfa_secret_enc
    FROM users
    WHERE username = $1
  `, username).Scan(&out.UserID, &out.PasswordHash, &out.IsAdmin, &out.MFAEnabled, &out.MFASecretEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, ErrInvalidCredentials
	}
	if err != nil {
		return Credentials{}, err
	}
	return out, nil
}

// IsAdmin re-reads the admin flag from the database. The JWT claim is only a
// hint; revoking admin must take effect on the next request, not at token
// expiry.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := s.Pool.QueryRow(ctx, "SELECT is_admin FROM users WHERE id = $1", userID).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return isAdmin, nil
}

func (s *Store) CreateSession(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	_, err := s.Pool.Exec(ctx, `
    INSERT INTO sessions (user_id, token_hash, expires_at)
    VALUES ($1,$2,$3)
  `, userID, tokenHash, expires)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, tokenHash string) (bool, error) {
	var count int
	if err := s.Pool.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND token_hash = $2 AND expires_at > now() AND revoked_at IS NULL
  `, userID, tokenHash).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) RevokeSession(ctx context.Context, userID, tokenHash string) error {
	_, err := s.Pool.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND token_hash = $2", userID, tokenHash)
	return err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.Pool.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.Pool.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) MFASecret(ctx context.Context, userID string) ([]byte, error) {
	var secretEnc []byte
	if err := s.Pool.QueryRow(ctx, "SELECT mfa_secret_enc FROM users WHERE id = $1", userID).Scan(&secretEnc); err != nil {
		return nil, err
	}
	return secretEnc, nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.Pool.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT id, username, is_admin, created_at, last_login
    FROM users
    ORDER BY created_at
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// User administration commits the row change and the audit record in one
// transaction, same as the payroll and leave stores.

func (s *Store) CreateUser(ctx context.Context, actorID *string, username, passwordHash string, isAdmin bool) (string, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO users (username, password_hash, is_admin)
    VALUES ($1,$2,$3)
    RETURNING id
  `, username, passwordHash, isAdmin).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrUsernameTaken
	}
	if err != nil {
		return "", err
	}

	if err := s.auditTx(ctx, tx, actorID, "user.create", "user", id, nil); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetAdmin(ctx context.Context, actorID *string, userID string, isAdmin bool) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "UPDATE users SET is_admin = $1 WHERE id = $2", isAdmin, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if err := s.auditTx(ctx, tx, actorID, "user.set_admin", "user", userID, map[string]any{"isAdmin": isAdmin}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) DeleteUser(ctx context.Context, actorID *string, userID string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if err := s.auditTx(ctx, tx, actorID, "user.delete", "user", userID, nil); err != nil {
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

package auth

import "context"

// Role administration: assignment and grant tables are replaced wholesale,
// mirroring how the admin screen submits them.

func (s *Store) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.Pool.Query(ctx, `
    SELECT r.id, r.name, COALESCE(array_agg(p.code ORDER BY p.code) FILTER (WHERE p.code IS NOT NULL), '{}')
    FROM roles r
    LEFT JOIN role_permissions rp ON rp.role_id = r.id
    LEFT JOIN permissions p ON p.id = rp.permission_id
    GROUP BY r.id, r.name
    ORDER BY r.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Permissions); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Store) ListPermissionCodes(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, "SELECT code FROM permissions ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *Store) UserRoleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.Pool.Query(ctx, "SELECT role_id FROM user_roles WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceUserRoles swaps a user's role assignments for the given set. Must be
// called inside a transaction so a failed insert cannot leave the user with
// no roles.
func (s *Store) ReplaceUserRoles(ctx context.Context, db DBTX, userID string, roleIDs []string) error {
	if _, err := db.Exec(ctx, "DELETE FROM user_roles WHERE user_id = $1", userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := db.Exec(ctx, "INSERT INTO user_roles (user_id, role_id) VALUES ($1,$2)", userID, roleID); err != nil {
			if isForeignKeyViolation(err) {
				return ErrRoleNotFound
			}
			return err
		}
	}
	return nil
}

// ReplaceRoleGrants swaps a role's permission grants for the given codes.
func (s *Store) ReplaceRoleGrants(ctx context.Context, db DBTX, roleID string, codes []string) error {
	if _, err := db.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", roleID); err != nil {
		return err
	}
	for _, code := range codes {
		tag, err := db.Exec(ctx, `
      INSERT INTO role_permissions (role_id, permission_id)
      SELECT $1, id FROM permissions WHERE code = $2
    `, roleID, code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPermissionUnknown
		}
	}
	return nil
}

func (s *Store) CreateRole(ctx context.Context, actorID *string, name string) (string, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id string
	err = tx.QueryRow(ctx, "INSERT INTO roles (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrRoleNameTaken
	}
	if err != nil {
		return "", err
	}

	if err := s.auditTx(ctx, tx, actorID, "role.create", "role", id, nil); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

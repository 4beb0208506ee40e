package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleNameTaken      = errors.New("role name already taken")
	ErrPermissionUnknown  = errors.New("unknown permission code")
	ErrSelfDelete         = errors.New("users cannot delete themselves")
)

package leave

import "errors"

var (
	ErrInvalidRange   = errors.New("leave end date is before start date")
	ErrUnknownType    = errors.New("unknown leave type")
	ErrNotFound       = errors.New("leave request not found")
	ErrAlreadyDecided = errors.New("leave request already decided")
	ErrEmployeeGone   = errors.New("employee not found")
)

package auth

import "errors"

var (
	// ErrRoleNotFound is returned when a role id does not exist. A valid
	// token carrying an orphaned role id is a trust anomaly; the resolver
	// turns this into a deny, never into a 404.
	ErrRoleNotFound = errors.New("role not found")

	// ErrPermissionNotFound is returned when no permission row carries the
	// requested key. This is not a failure: an ungated key means the action
	// is open to any caller the gate admits.
	ErrPermissionNotFound = errors.New("permission not found")
)

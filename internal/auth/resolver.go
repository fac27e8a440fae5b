package auth

import (
	"context"
	"errors"
	"fmt"
)

// Decision is the outcome of a permission resolution.
type Decision int

const (
	// Deny refuses the request: the role is unknown or lacks the permission.
	Deny Decision = iota
	// Allow admits the request after a positive permission check, or because
	// the requested key is not gated.
	Allow
	// AllowUnconditional admits the request on the super-admin bypass. It is
	// the only unconditional path through the resolver.
	AllowUnconditional
)

// String implements fmt.Stringer for log output.
func (d Decision) String() string {
	switch d {
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	case AllowUnconditional:
		return "allow-unconditional"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// PermissionKey builds the permission name for a resource and HTTP method,
// e.g. ("article", "DELETE") -> "article_DELETE".
func PermissionKey(resource, method string) string {
	return resource + "_" + method
}

// Resolver decides whether a role may perform a keyed action. Resolution is
// fresh per request; nothing is cached across calls.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver on the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Authorize resolves the decision for roleID performing the action named by
// key. The role lookup completes before any permission lookup is attempted.
//
// An unknown role denies (fail-closed). A super-admin role allows
// unconditionally. A key with no permission row allows: gating is opt-in per
// endpoint by inserting a matching row. Otherwise the role/permission link
// decides. Store failures are returned as errors, never folded into a deny.
func (r *Resolver) Authorize(ctx context.Context, roleID uint, key string) (Decision, error) {
	role, err := r.store.FindRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return Deny, nil
		}

		return Deny, err
	}

	if role.SuperAdmin {
		return AllowUnconditional, nil
	}

	permission, err := r.store.FindPermissionByName(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			// no permission row: this action is not gated
			return Allow, nil
		}

		return Deny, err
	}

	has, err := r.store.RoleHasPermission(ctx, roleID, permission.ID)
	if err != nil {
		return Deny, err
	}

	if !has {
		return Deny, nil
	}

	return Allow, nil
}

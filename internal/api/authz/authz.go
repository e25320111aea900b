package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type AuthUser struct {
	ID       int64
	Email    string
	FullName string
	Role     string
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value
// has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

// IsAdmin reports whether the given AuthUser represents an administrator.
func IsAdmin(user *AuthUser) bool {
	return user != nil && strings.EqualFold(user.Role, RoleAdmin)
}

// RequireRole returns ErrUnauthenticated when no user is present and
// ErrForbidden when the user's role does not match. Admins satisfy every
// role check.
func RequireRole(ctx context.Context, role string) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}

	if strings.EqualFold(user.Role, role) || IsAdmin(user) {
		return nil
	}
	return ErrForbidden
}

// RequireOwnerOrAdmin allows the owner of a record or any admin.
func RequireOwnerOrAdmin(ctx context.Context, ownerID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if user.ID == ownerID || IsAdmin(user) {
		return nil
	}
	return ErrForbidden
}

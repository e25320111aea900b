package authz

import (
	"context"
	"errors"
	"testing"
)

func TestUserFromContext_NilAndMissing(t *testing.T) {
	if user := UserFromContext(nil); user != nil {
		t.Fatalf("expected nil user for nil context, got %+v", user)
	}
	if user := UserFromContext(context.Background()); user != nil {
		t.Fatalf("expected nil user for empty context, got %+v", user)
	}
}

func TestUserFromContext_RoundTrip(t *testing.T) {
	want := &AuthUser{ID: 7, Email: "reader@example.com", Role: RoleMember}
	ctx := ContextWithUser(context.Background(), want)

	got := UserFromContext(ctx)
	if got == nil || got.ID != want.ID || got.Email != want.Email {
		t.Fatalf("user round trip failed: %+v", got)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		user    *AuthUser
		role    string
		wantErr error
	}{
		{"unauthenticated", nil, RoleAdmin, ErrUnauthenticated},
		{"member on admin route", &AuthUser{ID: 1, Role: RoleMember}, RoleAdmin, ErrForbidden},
		{"admin on admin route", &AuthUser{ID: 2, Role: RoleAdmin}, RoleAdmin, nil},
		{"admin satisfies member", &AuthUser{ID: 3, Role: RoleAdmin}, RoleMember, nil},
		{"case insensitive role", &AuthUser{ID: 4, Role: "Admin"}, RoleAdmin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.user != nil {
				ctx = ContextWithUser(ctx, tt.user)
			}
			err := RequireRole(ctx, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RequireRole() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := &AuthUser{ID: 10, Role: RoleMember}
	admin := &AuthUser{ID: 11, Role: RoleAdmin}
	other := &AuthUser{ID: 12, Role: RoleMember}

	if err := RequireOwnerOrAdmin(ContextWithUser(context.Background(), owner), 10); err != nil {
		t.Fatalf("owner should be allowed: %v", err)
	}
	if err := RequireOwnerOrAdmin(ContextWithUser(context.Background(), admin), 10); err != nil {
		t.Fatalf("admin should be allowed: %v", err)
	}
	if err := RequireOwnerOrAdmin(ContextWithUser(context.Background(), other), 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other member should be forbidden, got %v", err)
	}
	if err := RequireOwnerOrAdmin(context.Background(), 10); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous should be unauthenticated, got %v", err)
	}
}

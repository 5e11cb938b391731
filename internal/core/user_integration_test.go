package core_test

import (
	"context"
	"errors"
	"testing"

	"stockbook/internal/core"
)

func TestUsers_CreateAndAuthenticate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	users := core.NewUserService(pool)
	ctx := context.Background()

	u, err := users.CreateUser(ctx, core.NewUserInput{
		Username: "alice",
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		Role:     core.RoleCoAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.PasswordHash == "secret1" || u.PasswordHash == "" {
		t.Errorf("password stored in the clear or empty")
	}

	got, err := users.Authenticate(ctx, "alice", "secret1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.Role != core.RoleCoAdmin {
		t.Errorf("role = %q, want Co-Admin", got.Role)
	}

	if _, err := users.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("wrong password: expected ErrBadCredentials, got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody", "secret1"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("unknown user: expected ErrBadCredentials, got %v", err)
	}
}

func TestUsers_DuplicateUsernameRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	users := core.NewUserService(pool)
	ctx := context.Background()

	in := core.NewUserInput{
		Username: "alice",
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		Role:     core.RoleBiller,
	}
	if _, err := users.CreateUser(ctx, in); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := users.CreateUser(ctx, in); !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestUsers_UpdateRenameAndPassword(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	users := core.NewUserService(pool)
	ctx := context.Background()

	if _, err := users.CreateUser(ctx, core.NewUserInput{
		Username: "alice", Name: "Alice", Email: "alice@example.com",
		Password: "secret1", Role: core.RoleBiller,
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := users.CreateUser(ctx, core.NewUserInput{
		Username: "bob", Name: "Bob", Email: "bob@example.com",
		Password: "secret1", Role: core.RoleBiller,
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	// Renaming onto an existing username must fail.
	if _, err := users.UpdateUser(ctx, "alice", core.UpdateUserInput{
		NewUsername: "bob", Name: "Alice", Email: "alice@example.com", Role: core.RoleBiller,
	}); !errors.Is(err, core.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on rename collision, got %v", err)
	}

	// Rename plus role change, password untouched.
	updated, err := users.UpdateUser(ctx, "alice", core.UpdateUserInput{
		NewUsername: "alicia", Name: "Alicia", Email: "alicia@example.com", Role: core.RoleCoAdmin,
	})
	if err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if updated.Username != "alicia" || updated.Role != core.RoleCoAdmin {
		t.Errorf("updated = %s/%s, want alicia/Co-Admin", updated.Username, updated.Role)
	}
	if _, err := users.Authenticate(ctx, "alicia", "secret1"); err != nil {
		t.Errorf("old password should survive an update without password: %v", err)
	}

	if err := users.ChangePassword(ctx, "alicia", "newsecret"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if _, err := users.Authenticate(ctx, "alicia", "secret1"); !errors.Is(err, core.ErrBadCredentials) {
		t.Errorf("old password should no longer work")
	}
	if _, err := users.Authenticate(ctx, "alicia", "newsecret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestUsers_BootstrapAdminProtectedFromDeletion(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	users := core.NewUserService(pool)
	ctx := context.Background()

	if err := users.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("EnsureDefaultAdmin failed: %v", err)
	}
	if _, err := users.Authenticate(ctx, "admin", "admin"); err != nil {
		t.Fatalf("seeded admin should authenticate with default credentials: %v", err)
	}

	if err := users.DeleteUser(ctx, "admin"); !errors.Is(err, core.ErrProtectedUser) {
		t.Errorf("expected ErrProtectedUser, got %v", err)
	}

	// Seeding is a no-op once any account exists.
	if err := users.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("second EnsureDefaultAdmin failed: %v", err)
	}
	list, err := users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 user, got %d", len(list))
	}
}

func TestUsers_DeleteAndNotFound(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	users := core.NewUserService(pool)
	ctx := context.Background()

	if _, err := users.CreateUser(ctx, core.NewUserInput{
		Username: "carol", Name: "Carol", Email: "carol@example.com",
		Password: "secret1", Role: core.RoleBiller,
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if err := users.DeleteUser(ctx, "carol"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := users.DeleteUser(ctx, "carol"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUsers_TouchLastSeenFlipsStatusOnline(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	users := core.NewUserService(pool)
	ctx := context.Background()

	if _, err := users.CreateUser(ctx, core.NewUserInput{
		Username: "dave", Name: "Dave", Email: "dave@example.com",
		Password: "secret1", Role: core.RoleBiller,
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	u, err := users.GetUser(ctx, "dave")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.LastSeen != nil {
		t.Errorf("fresh account should have no last_seen")
	}

	if err := users.TouchLastSeen(ctx, "dave"); err != nil {
		t.Fatalf("TouchLastSeen failed: %v", err)
	}
	u, err = users.GetUser(ctx, "dave")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.LastSeen == nil {
		t.Fatalf("last_seen not set after touch")
	}
}

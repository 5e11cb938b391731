package core_test

import (
	"testing"
	"time"

	"stockbook/internal/core"
)

func TestUser_StatusDerivedFromLastSeen(t *testing.T) {
	now := time.Now()

	recent := now.Add(-2 * time.Minute)
	stale := now.Add(-10 * time.Minute)

	u := core.User{Username: "alice", LastSeen: &recent}
	if got := u.Status(now); got != "Online" {
		t.Errorf("seen 2m ago: Status = %q, want Online", got)
	}

	u.LastSeen = &stale
	if got := u.Status(now); got != "Offline" {
		t.Errorf("seen 10m ago: Status = %q, want Offline", got)
	}

	u.LastSeen = nil
	if got := u.Status(now); got != "Offline" {
		t.Errorf("never seen: Status = %q, want Offline", got)
	}
}

func TestNewUserInput_Validation(t *testing.T) {
	valid := core.NewUserInput{
		Username: "bob",
		Name:     "Bob",
		Email:    "bob@example.com",
		Password: "secret1",
		Role:     core.RoleBiller,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	short := valid
	short.Password = "abc"
	if err := short.Validate(); err == nil {
		t.Errorf("expected error for short password")
	}

	badRole := valid
	badRole.Role = "Superuser"
	if err := badRole.Validate(); err == nil {
		t.Errorf("expected error for unknown role")
	}

	missing := valid
	missing.Email = ""
	if err := missing.Validate(); err == nil {
		t.Errorf("expected error for missing email")
	}
}

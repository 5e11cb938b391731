package core

import (
	"strings"
	"time"
)

// Role gates page and operation visibility. Admin has full access, Co-Admin
// everything except user administration and the bill audit log, Biller only
// billing and bill viewing.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleCoAdmin Role = "Co-Admin"
	RoleBiller  Role = "Biller"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleCoAdmin || r == RoleBiller
}

// onlineWindow is the liveness window: a user whose last_seen falls within it
// is reported Online.
const onlineWindow = 5 * time.Minute

// User is a system account. Status is derived from LastSeen, never stored.
type User struct {
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Status returns "Online" when the user was seen within the liveness window.
func (u User) Status(now time.Time) string {
	if u.LastSeen != nil && now.Sub(*u.LastSeen) < onlineWindow {
		return "Online"
	}
	return "Offline"
}

const minPasswordLen = 6

// NewUserInput carries validated input for CreateUser.
type NewUserInput struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (in *NewUserInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
}

func (in NewUserInput) Validate() error {
	if in.Username == "" || in.Name == "" || in.Email == "" || in.Password == "" {
		return validationf("username, name, email and password are all required")
	}
	if len(in.Password) < minPasswordLen {
		return validationf("password must be at least %d characters long", minPasswordLen)
	}
	if !ValidRole(in.Role) {
		return validationf("role must be %q, %q or %q", RoleAdmin, RoleCoAdmin, RoleBiller)
	}
	return nil
}

// UpdateUserInput carries input for UpdateUser. An empty Password leaves the
// stored digest unchanged; a non-empty NewUsername renames the account.
type UpdateUserInput struct {
	NewUsername string `json:"username,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password,omitempty"`
	Role        Role   `json:"role"`
}

func (in *UpdateUserInput) Normalize() {
	in.NewUsername = strings.TrimSpace(in.NewUsername)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
}

func (in UpdateUserInput) Validate() error {
	if in.Name == "" || in.Email == "" {
		return validationf("name and email are required")
	}
	if in.Password != "" && len(in.Password) < minPasswordLen {
		return validationf("password must be at least %d characters long", minPasswordLen)
	}
	if !ValidRole(in.Role) {
		return validationf("role must be %q, %q or %q", RoleAdmin, RoleCoAdmin, RoleBiller)
	}
	return nil
}

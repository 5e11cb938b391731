package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// bootstrapAdmin is the username seeded on first start. It can never be
// deleted, so the system always has at least one Admin login.
const bootstrapAdmin = "admin"

// UserService is the identity store: account CRUD, credential checks, and
// the last-seen liveness signal.
type UserService interface {
	CreateUser(ctx context.Context, in NewUserInput) (*User, error)
	UpdateUser(ctx context.Context, username string, in UpdateUserInput) (*User, error)
	DeleteUser(ctx context.Context, username string) error

	// ChangePassword is the self-service path: no old-password check, the
	// caller is already authenticated.
	ChangePassword(ctx context.Context, username, newPassword string) error

	// Authenticate verifies the password and returns the user, or
	// ErrBadCredentials without revealing which part was wrong.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// TouchLastSeen records activity for the liveness window.
	TouchLastSeen(ctx context.Context, username string) error

	GetUser(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// EnsureDefaultAdmin seeds the bootstrap admin account when the users
	// table is empty. Called once at startup.
	EnsureDefaultAdmin(ctx context.Context) error
}

type userService struct {
	pool *pgxpool.Pool
}

func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

func hashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

const userColumns = "username, name, email, password_hash, role, last_seen, created_at"

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	var role string
	if err := row.Scan(&u.Username, &u.Name, &u.Email, &u.PasswordHash, &role, &u.LastSeen, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, in NewUserInput) (*User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var taken bool
	if err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)", in.Username,
	).Scan(&taken); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("username %s: %w", in.Username, ErrDuplicate)
	}

	digest, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING `+userColumns,
		in.Username, in.Name, in.Email, digest, string(in.Role))
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (s *userService) UpdateUser(ctx context.Context, username string, in UpdateUserInput) (*User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	current, err := s.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	newUsername := current.Username
	if in.NewUsername != "" && in.NewUsername != current.Username {
		var taken bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)", in.NewUsername,
		).Scan(&taken); err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("username %s: %w", in.NewUsername, ErrDuplicate)
		}
		newUsername = in.NewUsername
	}

	digest := current.PasswordHash
	if in.Password != "" {
		if digest, err = hashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET username = $1, name = $2, email = $3, password_hash = $4, role = $5
		WHERE username = $6
		RETURNING `+userColumns,
		newUsername, in.Name, in.Email, digest, string(in.Role), username)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", username, err)
	}
	return u, nil
}

func (s *userService) DeleteUser(ctx context.Context, username string) error {
	if username == bootstrapAdmin {
		return fmt.Errorf("%s: %w", username, ErrProtectedUser)
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return validationf("password must be at least %d characters long", minPasswordLen)
	}
	digest, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE users SET password_hash = $1 WHERE username = $2", digest, username)
	if err != nil {
		return fmt.Errorf("failed to change password for %s: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func (s *userService) TouchLastSeen(ctx context.Context, username string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE users SET last_seen = NOW() WHERE username = $1", username)
	if err != nil {
		return fmt.Errorf("failed to touch last_seen for %s: %w", username, err)
	}
	return nil
}

func (s *userService) GetUser(ctx context.Context, username string) (*User, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", username, err)
	}
	return u, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *userService) EnsureDefaultAdmin(ctx context.Context) error {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	digest, err := hashPassword(bootstrapAdmin)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (username, name, email, password_hash, role, created_at)
		VALUES ($1, 'Default Admin', 'admin@example.com', $2, $3, NOW())
	`, bootstrapAdmin, digest, string(RoleAdmin))
	if err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}
	return nil
}

package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, password_hash, role, email, is_active, last_login, created_at`

// UserRepository handles database operations for back-office accounts.
type UserRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, dialect: DialectOf(db)}
}

// GetByUsername finds a user by username. The email address is accepted as an alias.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ? OR (email <> '' AND email = ?) ORDER BY id LIMIT 1`)
	if err := r.db.GetContext(ctx, &user, query, username, username); err != nil {
		return nil, fmt.Errorf("failed to get user '%s': %w", username, classifyError(err))
	}
	return &user, nil
}

// GetByID finds a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id); err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, classifyError(err))
	}
	return &user, nil
}

// List returns all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*User, error) {
	users := []*User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", classifyError(err))
	}
	return users, nil
}

// Count returns the number of accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", classifyError(err))
	}
	return n, nil
}

// Create inserts a user and sets its ID. A taken username yields ErrDuplicateKey.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (username, password_hash, role, email, is_active) VALUES (?, ?, ?, ?, ?)`
	id, err := insertID(ctx, r.dialect, r.db, query, u.Username, u.PasswordHash, u.Role, u.Email, u.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = id
	return nil
}

// Update overwrites the username, email, role and password hash of an account.
// A taken username yields ErrDuplicateKey.
func (r *UserRepository) Update(ctx context.Context, u *User) error {
	query := `UPDATE users SET username = ?, email = ?, role = ?, password_hash = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), u.Username, u.Email, u.Role, u.PasswordHash, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", classifyError(err))
	}
	return expectOneRow(result, "user", u.ID)
}

// Delete removes an account.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", classifyError(err))
	}
	return expectOneRow(result, "user", id)
}

// SetActive enables or disables an account.
func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", classifyError(err))
	}
	return expectOneRow(result, "user", id)
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to record login: %w", classifyError(err))
	}
	return nil
}

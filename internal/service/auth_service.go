package service

import (
	"context"
	"errors"
	"go-news-portal/internal/auth"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"strings"
)

const minPasswordLength = 6

// UserRepository defines the interface for database operations on accounts.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*data.User, error)
	GetByID(ctx context.Context, id int64) (*data.User, error)
	List(ctx context.Context) ([]*data.User, error)
	Create(ctx context.Context, u *data.User) error
	Update(ctx context.Context, u *data.User) error
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	TouchLastLogin(ctx context.Context, id int64) error
}

// AuthService verifies credentials and manages back-office accounts.
type AuthService struct {
	users UserRepository
	log   logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, log logger.Logger) *AuthService {
	return &AuthService{users: users, log: log}
}

// Login checks a username (or email) and password. A wrong password and an unknown
// user both yield ErrInvalidCredentials after the same amount of hashing work.
// ErrAccountInactive is only returned once the password has matched.
func (s *AuthService) Login(ctx context.Context, username, password string) (*data.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		auth.BurnCompare(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			auth.BurnCompare(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		s.log.Error(err, "Stored password hash is unusable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Error(err, "Failed to record last login")
	}
	return user, nil
}

// LoginSSO maps an identity confirmed by the OIDC provider onto an existing account.
// No account is ever created here.
func (s *AuthService) LoginSSO(ctx context.Context, claims *auth.Claims) (*data.User, error) {
	for _, name := range []string{claims.PreferredUsername, claims.Email} {
		if name == "" {
			continue
		}
		user, err := s.users.GetByUsername(ctx, name)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !user.IsActive {
			return nil, ErrAccountInactive
		}
		if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
			s.log.Error(err, "Failed to record last login")
		}
		return user, nil
	}
	return nil, ErrInvalidCredentials
}

// CurrentUser loads the signed-in account; inactive accounts are treated as signed out.
func (s *AuthService) CurrentUser(ctx context.Context, id int64) (*data.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]*data.User, error) {
	return s.users.List(ctx)
}

// CreateUser adds an active account. Role is stored as given and never checked.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password, role string) (*data.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "Username is required")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password", "Password must be at least 6 characters")
	}
	if role == "" {
		role = "admin"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &data.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, data.ErrDuplicateKey) {
			return nil, &ValidationError{Field: "username", Message: "Username already exists", Err: err}
		}
		return nil, err
	}
	return user, nil
}

// ToggleUserActive enables or disables an account. Nobody can disable themselves.
func (s *AuthService) ToggleUserActive(ctx context.Context, id, actingUserID int64) error {
	if id == actingUserID {
		return invalid("id", "You cannot deactivate your own account")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.users.SetActive(ctx, id, !user.IsActive)
}

// GetUser retrieves an account for editing.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*data.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateUser changes the username, email and role of an account. The password
// is only replaced when a new one is given.
func (s *AuthService) UpdateUser(ctx context.Context, id int64, username, email, password, role string) (*data.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "Username is required")
	}
	if password != "" && len(password) < minPasswordLength {
		return nil, invalid("password", "Password must be at least 6 characters")
	}
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user := *current
	user.Username = username
	user.Email = strings.TrimSpace(email)
	if role != "" {
		user.Role = role
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, data.ErrDuplicateKey) {
			return nil, &ValidationError{Field: "username", Message: "Username already exists", Err: err}
		}
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account. Nobody can delete themselves.
func (s *AuthService) DeleteUser(ctx context.Context, id, actingUserID int64) error {
	if id == actingUserID {
		return invalid("id", "You cannot delete your own account")
	}
	return s.users.Delete(ctx, id)
}

package session

import (
	"context"
	"net/http"
)

// Session keys shared by the handlers and middleware.
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyFlash    = "flash"
	KeyState    = "oidc_state"
)

// Manager is an interface that abstracts the session management implementation.
// This allows for easier testing and dependency injection.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	GetInt64(ctx context.Context, key string) int64
	PopString(ctx context.Context, key string) string
	Exists(ctx context.Context, key string) bool
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}

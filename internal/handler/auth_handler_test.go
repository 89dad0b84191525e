//go:build unit

package handler

import (
	"context"
	"errors"
	"fmt"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/service"
	"go-news-portal/internal/session"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSessionManager is a mock implementation of the session.Manager interface.
type mockSessionManager struct {
	destroyCalled bool
	renewed       bool
	values        map[string]interface{}
}

// Ensure mockSessionManager implements the session.Manager interface.
var _ session.Manager = (*mockSessionManager)(nil)

func newMockSession() *mockSessionManager {
	return &mockSessionManager{values: map[string]interface{}{}}
}

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(ctx context.Context, key string, val interface{}) {
	m.values[key] = val
}
func (m *mockSessionManager) GetString(ctx context.Context, key string) string {
	s, _ := m.values[key].(string)
	return s
}
func (m *mockSessionManager) GetInt64(ctx context.Context, key string) int64 {
	n, _ := m.values[key].(int64)
	return n
}
func (m *mockSessionManager) PopString(ctx context.Context, key string) string {
	s := m.GetString(ctx, key)
	delete(m.values, key)
	return s
}
func (m *mockSessionManager) Exists(ctx context.Context, key string) bool {
	_, ok := m.values[key]
	return ok
}
func (m *mockSessionManager) RenewToken(ctx context.Context) error {
	m.renewed = true
	return nil
}
func (m *mockSessionManager) Destroy(ctx context.Context) error {
	m.destroyCalled = true
	m.values = map[string]interface{}{}
	return nil
}
func (m *mockSessionManager) Remove(ctx context.Context, key string) { delete(m.values, key) }

func TestLogoutHandler(t *testing.T) {
	// Arrange
	mockSession := newMockSession()
	mockSession.Put(context.Background(), session.KeyUserID, int64(1))
	// The account service and the OIDC client are not used by the logout handler.
	authHandler := NewAuthHandler(nil, nil, mockSession, nil, logger.Nop())

	req := httptest.NewRequest("GET", "/admin/logout", nil)
	rr := httptest.NewRecorder()

	// Act
	authHandler.logoutHandler(rr, req)

	// Assert
	assert.True(t, mockSession.destroyCalled, "expected session.Destroy to be called")
	assert.False(t, mockSession.Exists(req.Context(), session.KeyUserID))
	assert.Equal(t, http.StatusFound, rr.Code)

	location, err := rr.Result().Location()
	require.NoError(t, err)
	assert.Equal(t, "/", location.Path)
}

func TestSSOHandlers_DisabledWithoutProvider(t *testing.T) {
	authHandler := NewAuthHandler(nil, nil, newMockSession(), nil, logger.Nop())

	rr := httptest.NewRecorder()
	authHandler.ssoLoginHandler(rr, httptest.NewRequest("GET", "/auth/login", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	appErr := authHandler.ssoCallbackHandler(httptest.NewRecorder(), httptest.NewRequest("GET", "/auth/callback", nil))
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
}

func TestStartSession(t *testing.T) {
	sm := newMockSession()
	h := NewAuthHandler(nil, nil, sm, nil, logger.Nop())
	req := httptest.NewRequest("POST", "/admin/login", nil)

	require.NoError(t, h.startSession(req, &data.User{ID: 7, Username: "editor"}))

	assert.True(t, sm.renewed, "the session token must rotate on sign-in")
	assert.Equal(t, int64(7), sm.GetInt64(req.Context(), session.KeyUserID))
	assert.Equal(t, "editor", sm.GetString(req.Context(), session.KeyUsername))
}

func TestToAppError(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", &service.ValidationError{Field: "title", Message: "Title is required"}, http.StatusBadRequest, "Title is required"},
		{"layout type", fmt.Errorf("save: %w", data.ErrInvalidLayoutType), http.StatusBadRequest, "Unknown layout type"},
		{"not found", fmt.Errorf("article 3: %w", data.ErrNotFound), http.StatusNotFound, "Page not found"},
		{"unavailable", fmt.Errorf("list: %w", data.ErrConnectionUnavailable), http.StatusServiceUnavailable, msgUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError, "Failed to do it"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			appErr := toAppError(tc.err, "Failed to do it")
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
			assert.Equal(t, tc.err, appErr.Error)
		})
	}
}

func TestIDParam(t *testing.T) {
	testCases := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tc.raw)
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			id, err := idParam(req)
			if tc.wantErr {
				assert.True(t, errors.Is(err, service.ErrInvalidParameter))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	h := &renderer{log: logger.Nop()}
	rr := httptest.NewRecorder()

	h.writeJSONError(rr, &service.ValidationError{Field: "status", Message: "Unknown status"}, "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":false,"error":"Unknown status"}`, rr.Body.String())
}

func TestFormHelpers(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("count=12&bad=x&on=on&start=2025-03-01&end=03/01/2025"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	assert.Equal(t, 12, formInt(req, "count", 1))
	assert.Equal(t, 1, formInt(req, "bad", 1))
	assert.Equal(t, 5, formInt(req, "missing", 5))
	assert.True(t, formBool(req, "on"))
	assert.False(t, formBool(req, "missing"))

	start, err := formDate(req, "start")
	require.NoError(t, err)
	require.NotNil(t, start)
	assert.Equal(t, "2025-03-01", start.Format(dateLayout))

	_, err = formDate(req, "end")
	assert.Error(t, err)

	none, err := formDate(req, "missing")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestWithoutArticle(t *testing.T) {
	articles := []*data.Article{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	got := withoutArticle(articles, 2, 2)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

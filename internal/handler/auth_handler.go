package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"go-news-portal/internal/auth"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"go-news-portal/internal/session"
	"go-news-portal/internal/view"
	"io"
	"net/http"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	renderer
	accounts *service.AuthService
	oidc     *auth.Authenticator // nil when SSO is not configured
}

// NewAuthHandler creates a new AuthHandler. a may be nil.
func NewAuthHandler(accounts *service.AuthService, a *auth.Authenticator, sm session.Manager, v *view.View, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		renderer: renderer{view: v, sessions: sm, log: log},
		accounts: accounts,
		oidc:     a,
	}
}

// loginFormHandler shows the back-office login form.
func (h *AuthHandler) loginFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if middleware.GetUserInfo(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return nil
	}
	return h.render(w, r, "login.html", map[string]interface{}{"SSOEnabled": h.oidc != nil})
}

// loginHandler verifies the submitted credentials and starts a session.
// Unknown users and wrong passwords get the same message.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := r.FormValue("username")
	user, err := h.accounts.Login(r.Context(), username, r.FormValue("password"))
	if err != nil {
		form := map[string]interface{}{"SSOEnabled": h.oidc != nil, "Username": username}
		code := http.StatusUnauthorized
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountInactive):
			// A deactivated account gets the same answer as a wrong password.
			form["Error"] = "Invalid username or password"
		case data.IsUnavailable(err):
			form["Error"] = msgUnavailable
			code = http.StatusServiceUnavailable
		default:
			return toAppError(err, "Login failed")
		}
		return h.renderStatus(w, r, code, "login.html", form)
	}

	if err := h.startSession(r, user); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
	return nil
}

// logoutHandler ends the session.
func (h *AuthHandler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		h.log.Error(err, "Failed to destroy session")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// ssoLoginHandler redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) ssoLoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.oidc == nil {
		http.NotFound(w, r)
		return
	}
	state, err := randString(16)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.sessions.Put(r.Context(), session.KeyState, state)
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// ssoCallbackHandler is the redirect URL for the OIDC provider. The confirmed
// identity must belong to an existing active account.
func (h *AuthHandler) ssoCallbackHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return &middleware.AppError{Message: "Page not found", Code: http.StatusNotFound}
	}
	// Verify the state parameter to prevent CSRF attacks.
	state := h.sessions.PopString(r.Context(), session.KeyState)
	if state == "" || r.URL.Query().Get("state") != state {
		return &middleware.AppError{Error: errors.New("state mismatch"), Message: "Invalid login attempt", Code: http.StatusBadRequest}
	}

	claims, err := h.oidc.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Single sign-on failed", Code: http.StatusUnauthorized}
	}
	user, err := h.accounts.LoginSSO(r.Context(), claims)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrAccountInactive) {
			h.flash(r, "No active account matches this identity")
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return nil
		}
		return toAppError(err, "Single sign-on failed")
	}

	if err := h.startSession(r, user); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
	return nil
}

// startSession rotates the session token and records the account in it.
func (h *AuthHandler) startSession(r *http.Request, user *data.User) error {
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sessions.Put(r.Context(), session.KeyUserID, user.ID)
	h.sessions.Put(r.Context(), session.KeyUsername, user.Username)
	return nil
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package middleware

import (
	"context"
	"errors"
	"go-news-portal/internal/auth"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/session"
	"net/http"
	"strings"

	"github.com/casbin/casbin/v2"
)

// AccountLoader resolves the account behind a session. Implemented by service.AuthService.
type AccountLoader interface {
	CurrentUser(ctx context.Context, id int64) (*data.User, error)
}

// Authorizer creates a new middleware for authorization.
// Any signed-in account acts as the admin subject; everybody else is anonymous.
// Anonymous requests for the back office are sent to the login form, other
// denials get a 403. accounts may be nil, in which case the session alone decides.
func Authorizer(e casbin.IEnforcer, sm session.Manager, accounts AccountLoader, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userInfo := &UserInfo{Subject: auth.SubjectAnonymous}

			if id := sm.GetInt64(r.Context(), session.KeyUserID); id != 0 {
				userInfo = &UserInfo{
					Subject:  auth.SubjectAdmin,
					UserID:   id,
					Username: sm.GetString(r.Context(), session.KeyUsername),
				}
				if accounts != nil {
					user, err := accounts.CurrentUser(r.Context(), id)
					switch {
					case err == nil:
						userInfo.Username = user.Username
					case data.IsUnavailable(err):
						// Keep the session identity; the store will be back.
					default:
						// Deleted or deactivated since sign-in.
						if !errors.Is(err, data.ErrNotFound) {
							log.Debug("Signing out session: " + err.Error())
						}
						sm.Remove(r.Context(), session.KeyUserID)
						sm.Remove(r.Context(), session.KeyUsername)
						userInfo = &UserInfo{Subject: auth.SubjectAnonymous}
					}
				}
			}

			// Add user info to the request context for downstream handlers.
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			// Use Casbin to enforce the policy.
			allowed, err := e.Enforce(userInfo.Subject, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Policy evaluation failed")
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				if !userInfo.IsAuthenticated() && isAdminPath(r.URL.Path) {
					http.Redirect(w, r, "/admin/login", http.StatusFound)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAdminPath(p string) bool {
	return p == "/admin" || strings.HasPrefix(p, "/admin/")
}

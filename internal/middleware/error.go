package middleware

import (
	"fmt"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/view"
	"net/http"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Error is a middleware that converts handler errors into user-friendly error pages.
// Only Message reaches the visitor; the wrapped error is logged.
func Error(log logger.Logger, v *view.View) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					renderError(w, r, v, log, http.StatusInternalServerError, "Internal Server Error")
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else if appErr.Error != nil {
				log.Debug(appErr.Message + ": " + appErr.Error.Error())
			}
			renderError(w, r, v, log, appErr.Code, appErr.Message)
		})
	}
}

func renderError(w http.ResponseWriter, r *http.Request, v *view.View, log logger.Logger, code int, message string) {
	data := map[string]interface{}{
		"StatusCode": code,
		"StatusText": message,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := v.Render(w, r, "error.html", data); err != nil {
		log.Error(err, "Failed to render error page")
		fmt.Fprintf(w, "Error %d: %s", code, message)
	}
}

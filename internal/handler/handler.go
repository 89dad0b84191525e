package handler

import (
	"encoding/json"
	"errors"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"go-news-portal/internal/session"
	"go-news-portal/internal/view"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const msgUnavailable = "Database unavailable, please try again"

// renderer holds what every page handler needs to produce HTML.
type renderer struct {
	view     *view.View
	sessions session.Manager
	log      logger.Logger
}

// render executes a page template with the signed-in user and any pending flash message.
func (h *renderer) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) *middleware.AppError {
	return h.renderStatus(w, r, http.StatusOK, name, data)
}

func (h *renderer) renderStatus(w http.ResponseWriter, r *http.Request, code int, name string, data map[string]interface{}) *middleware.AppError {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["UserInfo"] = middleware.GetUserInfo(r.Context())
	if h.sessions != nil {
		if flash := h.sessions.PopString(r.Context(), session.KeyFlash); flash != "" {
			data["Flash"] = flash
		}
	}
	if code != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(code)
	}
	if err := h.view.Render(w, r, name, data); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render page", Code: http.StatusInternalServerError}
	}
	return nil
}

// flash stores a one-shot message for the next rendered page.
func (h *renderer) flash(r *http.Request, msg string) {
	if h.sessions != nil {
		h.sessions.Put(r.Context(), session.KeyFlash, msg)
	}
}

// toAppError maps a service or data error onto a status code and a safe message.
func toAppError(err error, message string) *middleware.AppError {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return &middleware.AppError{Error: err, Message: verr.Message, Code: http.StatusBadRequest}
	case errors.Is(err, data.ErrInvalidLayoutType):
		return &middleware.AppError{Error: err, Message: "Unknown layout type", Code: http.StatusBadRequest}
	case errors.Is(err, service.ErrInvalidParameter):
		return &middleware.AppError{Error: err, Message: "Invalid parameter", Code: http.StatusBadRequest}
	case errors.Is(err, data.ErrNotFound):
		return &middleware.AppError{Error: err, Message: "Page not found", Code: http.StatusNotFound}
	case data.IsUnavailable(err):
		return &middleware.AppError{Error: err, Message: msgUnavailable, Code: http.StatusServiceUnavailable}
	default:
		return &middleware.AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
	}
}

// writeJSON sends v as a JSON document.
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError answers a JSON endpoint with {"success":false,"error":...}.
func (h *renderer) writeJSONError(w http.ResponseWriter, err error, message string) {
	appErr := toAppError(err, message)
	if appErr.Code >= http.StatusInternalServerError {
		h.log.Error(err, message)
	}
	writeJSON(w, appErr.Code, map[string]interface{}{"success": false, "error": appErr.Message})
}

func writeJSONOK(w http.ResponseWriter, extra map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: "id", Message: "Invalid id", Err: service.ErrInvalidParameter}
	}
	return id, nil
}

// validationMessages turns a validation error into the field→message map the forms display.
func validationMessages(err error) (map[string]string, bool) {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	return map[string]string{verr.Field: verr.Message}, true
}

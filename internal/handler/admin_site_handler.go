package handler

import (
	"fmt"
	"go-news-portal/internal/data"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"net/http"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// adsHandler lists the ads with their counters.
func (h *AdminHandler) adsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.adsPage(w, r, http.StatusOK, nil)
}

func (h *AdminHandler) adsPage(w http.ResponseWriter, r *http.Request, code int, errs map[string]string) *middleware.AppError {
	ads, err := h.ads.ListAds(r.Context())
	if err != nil {
		return toAppError(err, "Failed to load ads")
	}
	return h.pageStatus(w, r, code, "ads", "ads.html", map[string]interface{}{
		"Ads":        ads,
		"Placements": service.Placements,
		"Errors":     errs,
	})
}

// addAdHandler creates an ad. An uploaded image takes precedence over the image URL field.
func (h *AdminHandler) addAdHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in, errs, appErr := h.adForm(w, r)
	if appErr != nil {
		return appErr
	}
	if errs != nil {
		return h.adsPage(w, r, http.StatusBadRequest, errs)
	}
	ad, err := h.ads.CreateAd(r.Context(), in)
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.adsPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/ads", err, "Failed to create ad")
	}
	h.redirectWithFlash(w, r, "/admin/ads", "Ad \""+ad.Title+"\" created")
	return nil
}

// editAdHandler shows the edit form of an ad.
func (h *AdminHandler) editAdHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	ad, err := h.ads.GetAd(r.Context(), id)
	if err != nil {
		return toAppError(err, "Failed to load ad")
	}
	return h.adFormPage(w, r, http.StatusOK, ad, nil)
}

func (h *AdminHandler) adFormPage(w http.ResponseWriter, r *http.Request, code int, ad *data.Ad, errs map[string]string) *middleware.AppError {
	return h.pageStatus(w, r, code, "ads", "ad_form.html", map[string]interface{}{
		"Ad":         ad,
		"Placements": service.Placements,
		"Errors":     errs,
	})
}

// updateAdHandler saves the edit form. Without a new upload the image URL field is kept.
func (h *AdminHandler) updateAdHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	in, errs, appErr := h.adForm(w, r)
	if appErr != nil {
		return appErr
	}
	in.IsActive = formBool(r, "is_active")
	back := fmt.Sprintf("/admin/ads/%d/edit", id)

	if errs == nil {
		ad, err := h.ads.UpdateAd(r.Context(), id, in)
		if err == nil {
			h.redirectWithFlash(w, r, "/admin/ads", "Ad \""+ad.Title+"\" updated")
			return nil
		}
		msgs, ok := validationMessages(err)
		if !ok {
			return h.failWrite(w, r, back, err, "Failed to update ad")
		}
		errs = msgs
	}

	// Re-render with what was submitted.
	ad := &data.Ad{ID: id, Title: in.Title, Placement: in.Placement, AdType: in.AdType, ImageURL: in.ImageURL,
		ClickURL: in.ClickURL, StartDate: in.StartDate, EndDate: in.EndDate, Priority: in.Priority, IsActive: in.IsActive}
	return h.adFormPage(w, r, http.StatusBadRequest, ad, errs)
}

// adForm reads the ad fields shared by the create and edit forms and stores an
// uploaded image. Field errors come back in errs.
func (h *AdminHandler) adForm(w http.ResponseWriter, r *http.Request) (in service.AdInput, errs map[string]string, appErr *middleware.AppError) {
	if h.media.MaxSize() > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxSize()+1<<20)
	}
	in = service.AdInput{
		Title:     r.FormValue("title"),
		Placement: r.FormValue("placement"),
		AdType:    r.FormValue("ad_type"),
		ImageURL:  r.FormValue("image_url"),
		ClickURL:  r.FormValue("click_url"),
		Priority:  formInt(r, "priority", 1),
	}

	var err error
	if in.StartDate, err = formDate(r, "start_date"); err != nil {
		return in, map[string]string{"start_date": "Invalid start date"}, nil
	}
	if in.EndDate, err = formDate(r, "end_date"); err != nil {
		return in, map[string]string{"end_date": "Invalid end date"}, nil
	}

	if file, header, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		url, err := h.media.Save(header.Filename, header.Size, file)
		if err != nil {
			if msgs, ok := validationMessages(err); ok {
				return in, msgs, nil
			}
			return in, nil, toAppError(err, "Failed to store image")
		}
		in.ImageURL = url
	}
	return in, nil, nil
}

// toggleAdHandler flips the active flag of an ad.
func (h *AdminHandler) toggleAdHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	if err := h.ads.ToggleActive(r.Context(), id); err != nil {
		return h.failWrite(w, r, "/admin/ads", err, "Failed to update ad")
	}
	h.redirectWithFlash(w, r, "/admin/ads", "Ad updated")
	return nil
}

func (h *AdminHandler) deleteAdHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	if err := h.ads.DeleteAd(r.Context(), id); err != nil {
		return h.failWrite(w, r, "/admin/ads", err, "Failed to delete ad")
	}
	h.redirectWithFlash(w, r, "/admin/ads", "Ad deleted")
	return nil
}

// settingsHandler shows the site settings form.
func (h *AdminHandler) settingsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	values, _ := h.settings.All(r.Context())
	return h.settingsPage(w, r, http.StatusOK, values, nil)
}

func (h *AdminHandler) settingsPage(w http.ResponseWriter, r *http.Request, code int, values map[string]string, errs map[string]string) *middleware.AppError {
	return h.pageStatus(w, r, code, "settings", "settings.html", map[string]interface{}{
		"Fields": data.DefaultSettings,
		"Values": values,
		"Errors": errs,
	})
}

// saveSettingsHandler stores the submitted settings.
func (h *AdminHandler) saveSettingsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid form", Code: http.StatusBadRequest}
	}
	values := make(map[string]string, len(data.DefaultSettings))
	for _, f := range data.DefaultSettings {
		if _, ok := r.PostForm[f.Key]; ok {
			values[f.Key] = r.PostForm.Get(f.Key)
		}
	}
	if err := h.settings.Save(r.Context(), values); err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.settingsPage(w, r, http.StatusBadRequest, values, msgs)
		}
		return h.failWrite(w, r, "/admin/settings", err, "Failed to save settings")
	}
	h.redirectWithFlash(w, r, "/admin/settings", "Settings saved")
	return nil
}

// usersHandler lists the back-office accounts.
func (h *AdminHandler) usersHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.usersPage(w, r, http.StatusOK, nil)
}

func (h *AdminHandler) usersPage(w http.ResponseWriter, r *http.Request, code int, errs map[string]string) *middleware.AppError {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		return toAppError(err, "Failed to load users")
	}
	return h.pageStatus(w, r, code, "users", "users.html", map[string]interface{}{
		"Users":  users,
		"Errors": errs,
	})
}

func (h *AdminHandler) addUserHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	user, err := h.accounts.CreateUser(r.Context(), r.FormValue("username"), r.FormValue("email"), r.FormValue("password"), r.FormValue("role"))
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.usersPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/users", err, "Failed to create user")
	}
	h.redirectWithFlash(w, r, "/admin/users", "User \""+user.Username+"\" created")
	return nil
}

// toggleUserHandler activates or deactivates an account other than the caller's.
func (h *AdminHandler) toggleUserHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	acting := middleware.GetUserInfo(r.Context()).UserID
	if err := h.accounts.ToggleUserActive(r.Context(), id, acting); err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.usersPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/users", err, "Failed to update user")
	}
	h.redirectWithFlash(w, r, "/admin/users", "User updated")
	return nil
}

// updateUserHandler edits an account. The password is only changed when one is given.
func (h *AdminHandler) updateUserHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	user, err := h.accounts.UpdateUser(r.Context(), id, r.FormValue("username"), r.FormValue("email"), r.FormValue("password"), r.FormValue("role"))
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.usersPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/users", err, "Failed to update user")
	}
	h.redirectWithFlash(w, r, "/admin/users", "User \""+user.Username+"\" updated")
	return nil
}

// deleteUserHandler removes an account other than the caller's.
func (h *AdminHandler) deleteUserHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	acting := middleware.GetUserInfo(r.Context()).UserID
	if err := h.accounts.DeleteUser(r.Context(), id, acting); err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.usersPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/users", err, "Failed to delete user")
	}
	h.redirectWithFlash(w, r, "/admin/users", "User deleted")
	return nil
}

// formDate parses an optional yyyy-mm-dd field.
func formDate(r *http.Request, key string) (*time.Time, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

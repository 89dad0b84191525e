package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"go-news-portal/internal/data"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxImportSize bounds an uploaded layout document.
const maxImportSize = 1 << 20

// layoutHandler shows the homepage layout editor.
func (h *AdminHandler) layoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	tree, err := h.layouts.CategoryTree(r.Context())
	if err != nil {
		return toAppError(err, "Failed to load categories")
	}
	homepage, err := h.layouts.HomepageSettings(r.Context())
	if err != nil {
		h.log.Error(err, "Failed to load homepage settings")
	}
	return h.page(w, r, "layout", "layout.html", map[string]interface{}{
		"Tree":     tree,
		"Homepage": homepage,
	})
}

// saveLayoutHandler stores the layout of one category from a form post.
func (h *AdminHandler) saveLayoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err != nil || id <= 0 {
		return toAppError(&service.ValidationError{Field: "category_id", Message: "Invalid category", Err: service.ErrInvalidParameter}, "")
	}
	layout, err := data.ParseLayoutType(r.FormValue("layout_type"))
	if err != nil {
		return h.failLayout(w, r, err, "Failed to save layout")
	}
	err = h.layouts.SaveCategoryLayout(r.Context(), data.CategoryLayout{
		CategoryID:    id,
		LayoutType:    layout,
		ArticlesCount: formInt(r, "articles_count", 0),
		ShowImages:    formBool(r, "show_images"),
		ShowExcerpts:  formBool(r, "show_excerpts"),
	})
	if err != nil {
		return h.failLayout(w, r, err, "Failed to save layout")
	}
	h.redirectWithFlash(w, r, "/admin/layout", "Layout saved")
	return nil
}

// saveAllLayoutsHandler stores the layouts of several categories at once.
// The body is a JSON array; nothing is written unless every entry is valid.
func (h *AdminHandler) saveAllLayoutsHandler(w http.ResponseWriter, r *http.Request) {
	var layouts []data.CategoryLayout
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportSize)).Decode(&layouts); err != nil {
		if errors.Is(err, data.ErrInvalidLayoutType) {
			h.writeJSONError(w, err, "")
			return
		}
		h.writeJSONError(w, &service.ValidationError{Field: "layouts", Message: "Invalid JSON body", Err: err}, "")
		return
	}
	if err := h.layouts.SaveAll(r.Context(), layouts); err != nil {
		h.writeJSONError(w, err, "Failed to save layouts")
		return
	}
	writeJSONOK(w, map[string]interface{}{"saved": len(layouts)})
}

// reorderHandler applies a new category order sent as {"ordered_ids": [...]}.
func (h *AdminHandler) reorderHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderedIDs []int64 `json:"ordered_ids"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportSize)).Decode(&body); err != nil {
		h.writeJSONError(w, &service.ValidationError{Field: "ordered_ids", Message: "Invalid JSON body", Err: err}, "")
		return
	}
	if err := h.layouts.ReorderCategories(r.Context(), body.OrderedIDs); err != nil {
		h.writeJSONError(w, err, "Failed to reorder categories")
		return
	}
	writeJSONOK(w, nil)
}

// homepageSettingsHandler saves the page-wide homepage options.
func (h *AdminHandler) homepageSettingsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	hs := service.HomepageSettings{
		LatestCount: formInt(r, "latest_count", service.DefaultHomepageSettings().LatestCount),
		TickerText:  strings.TrimSpace(r.FormValue("ticker_text")),
		ShowTicker:  formBool(r, "show_ticker"),
		ShowSidebar: formBool(r, "show_sidebar"),
	}
	if err := h.layouts.SaveHomepageSettings(r.Context(), r.FormValue("layout_name"), hs); err != nil {
		return h.failLayout(w, r, err, "Failed to save homepage settings")
	}
	h.redirectWithFlash(w, r, "/admin/layout", "Homepage settings saved")
	return nil
}

// exportLayoutHandler downloads the layout configuration as JSON.
func (h *AdminHandler) exportLayoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	doc, err := h.layouts.Export(r.Context())
	if err != nil {
		return toAppError(err, "Failed to export layout")
	}
	name := fmt.Sprintf("layout-%s.json", time.Now().Format("20060102"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, doc)
	return nil
}

// importLayoutHandler applies an exported document, uploaded as the "file" form
// field or posted directly as a JSON body.
func (h *AdminHandler) importLayoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var src io.Reader = http.MaxBytesReader(w, r.Body, maxImportSize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			h.redirectWithFlash(w, r, "/admin/layout", "No file uploaded")
			return nil
		}
		defer file.Close()
		src = io.LimitReader(file, maxImportSize)
	}

	var doc service.LayoutExport
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		h.redirectWithFlash(w, r, "/admin/layout", "The file is not a valid layout export")
		return nil
	}
	if err := h.layouts.Import(r.Context(), &doc); err != nil {
		return h.failLayout(w, r, err, "Failed to import layout")
	}
	h.redirectWithFlash(w, r, "/admin/layout", "Layout imported")
	return nil
}

// failLayout sends rejected input back to the layout editor as a flash message.
func (h *AdminHandler) failLayout(w http.ResponseWriter, r *http.Request, err error, message string) *middleware.AppError {
	if appErr := toAppError(err, message); appErr.Code == http.StatusBadRequest {
		h.redirectWithFlash(w, r, "/admin/layout", appErr.Message)
		return nil
	}
	return h.failWrite(w, r, "/admin/layout", err, message)
}

// categoriesHandler shows the category tree.
func (h *AdminHandler) categoriesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.categoriesPage(w, r, http.StatusOK, nil)
}

func (h *AdminHandler) categoriesPage(w http.ResponseWriter, r *http.Request, code int, errs map[string]string) *middleware.AppError {
	tree, err := h.layouts.CategoryTree(r.Context())
	if err != nil {
		return toAppError(err, "Failed to load categories")
	}
	return h.pageStatus(w, r, code, "categories", "categories.html", map[string]interface{}{
		"Tree":   tree,
		"Errors": errs,
	})
}

// addCategoryHandler creates a top-level category.
func (h *AdminHandler) addCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	c, err := h.layouts.CreateCategory(r.Context(), r.FormValue("name"), r.FormValue("slug"), r.FormValue("description"))
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.categoriesPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/categories", err, "Failed to create category")
	}
	h.redirectWithFlash(w, r, "/admin/categories", "Category \""+c.Name+"\" created")
	return nil
}

// addSubcategoryHandler creates a category below an existing top-level one.
func (h *AdminHandler) addSubcategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	parentID, err := strconv.ParseInt(r.FormValue("parent_id"), 10, 64)
	if err != nil || parentID <= 0 {
		return h.categoriesPage(w, r, http.StatusBadRequest, map[string]string{"parent_id": "Choose a parent category"})
	}
	c, err := h.layouts.CreateSubcategory(r.Context(), parentID, r.FormValue("name"), r.FormValue("slug"), r.FormValue("description"))
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.categoriesPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/categories", err, "Failed to create subcategory")
	}
	h.redirectWithFlash(w, r, "/admin/categories", "Subcategory \""+c.Name+"\" created")
	return nil
}

// updateCategoryHandler edits a category. An empty parent_id makes it top-level.
func (h *AdminHandler) updateCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	var parentID *int64
	if v := strings.TrimSpace(r.FormValue("parent_id")); v != "" && v != "0" {
		pid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || pid <= 0 {
			return h.categoriesPage(w, r, http.StatusBadRequest, map[string]string{"parent_id": "Choose a parent category"})
		}
		parentID = &pid
	}
	c, err := h.layouts.UpdateCategory(r.Context(), id, r.FormValue("name"), r.FormValue("slug"), r.FormValue("description"), parentID)
	if err != nil {
		if msgs, ok := validationMessages(err); ok {
			return h.categoriesPage(w, r, http.StatusBadRequest, msgs)
		}
		return h.failWrite(w, r, "/admin/categories", err, "Failed to update category")
	}
	h.redirectWithFlash(w, r, "/admin/categories", "Category \""+c.Name+"\" updated")
	return nil
}

// deleteCategoryHandler removes a category and its subcategories.
func (h *AdminHandler) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r)
	if err != nil {
		return toAppError(err, "")
	}
	if err := h.layouts.DeleteCategory(r.Context(), id); err != nil {
		return h.failWrite(w, r, "/admin/categories", err, "Failed to delete category")
	}
	h.redirectWithFlash(w, r, "/admin/categories", "Category deleted")
	return nil
}

// deleteSubcategoryHandler removes a subcategory. Answers in JSON.
func (h *AdminHandler) deleteSubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSONError(w, err, "")
		return
	}
	if err := h.layouts.DeleteSubcategory(r.Context(), id); err != nil {
		h.writeJSONError(w, err, "Failed to delete subcategory")
		return
	}
	writeJSONOK(w, nil)
}

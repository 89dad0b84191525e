//go:build integration

package handler

import (
	"context"
	"fmt"
	"go-news-portal/internal/auth"
	"go-news-portal/internal/config"
	"go-news-portal/internal/data"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"go-news-portal/internal/view"
	"go-news-portal/web"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "admin123"
)

type testApp struct {
	Server *httptest.Server
	Client *http.Client
	DB     *sqlx.DB
}

// setupIntegrationTest initializes a full application stack over an in-memory SQLite database.
// Sessions are kept in memory.
func setupIntegrationTest(t *testing.T) *testApp {
	t.Helper()
	return setupIntegrationTestWithStore(t, nil)
}

// setupIntegrationTestWithStore is setupIntegrationTest with the session store
// built by newStore over the test database.
func setupIntegrationTestWithStore(t *testing.T, newStore func(db *sqlx.DB, log logger.Logger) scs.Store) *testApp {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlx.Connect("sqlite3", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	files, err := fs.Glob(data.MigrationsFS, "migrations/sqlite3/*.up.sql")
	require.NoError(t, err)
	sort.Strings(files)
	for _, f := range files {
		schema, err := fs.ReadFile(data.MigrationsFS, f)
		require.NoError(t, err)
		db.MustExec(string(schema))
	}

	log := logger.Nop()
	hash, err := auth.HashPassword(testAdminPassword)
	require.NoError(t, err)
	admin := &data.User{Username: testAdminUser, Email: "admin@echhapa.com", PasswordHash: hash, Role: "admin", IsActive: true}
	require.NoError(t, data.Seed(ctx, db, admin, log))

	v, err := view.New(web.TemplateFS)
	require.NoError(t, err)

	articles := service.NewArticleService(data.NewSQLArticleRepository(db), log)
	layouts := service.NewLayoutService(data.NewCategoryRepository(db), data.NewLayoutSettingRepository(db))
	ads := service.NewAdService(data.NewAdRepository(db))
	accounts := service.NewAuthService(data.NewUserRepository(db), log)
	settings := service.NewSettingsService(data.NewSettingRepository(db), nil, log)
	home := service.NewHomeService(articles, layouts, ads, log)
	media := service.NewMediaService(config.UploadConfig{Dir: t.TempDir(), MaxSize: 1 << 20, AllowedTypes: []string{"png", "jpg"}})

	sessions := scs.New()
	if newStore != nil {
		sessions.Store = newStore(db, log)
	}

	enforcer, err := auth.NewEnforcer(nil)
	require.NoError(t, err)
	auth.SeedDefaultPolicies(enforcer, log)

	router := NewRouter(
		NewPublicHandler(home, articles, layouts, ads, v, log),
		NewAuthHandler(accounts, nil, sessions, v, log),
		NewAdminHandler(articles, layouts, ads, accounts, settings, media, sessions, v, log),
		NewSeoHandler(articles, layouts, "http://news.test", log),
		Middlewares{
			Authz:    middleware.Authorizer(enforcer, sessions, accounts, log),
			Settings: middleware.SiteSettings(settings),
			Error:    middleware.Error(log, v),
		},
		sessions,
		media.Dir(),
	)

	server := httptest.NewServer(router)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Cleanup(func() {
		server.Close()
		db.Close()
	})
	return &testApp{Server: server, Client: client, DB: db}
}

func (app *testApp) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Client.Get(app.Server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (app *testApp) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := app.Client.PostForm(app.Server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (app *testApp) send(t *testing.T, method, path, contentType string, body io.Reader) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, app.Server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (app *testApp) postJSON(t *testing.T, path, body string) (*http.Response, string) {
	t.Helper()
	return app.send(t, http.MethodPost, path, "application/json", strings.NewReader(body))
}

func (app *testApp) login(t *testing.T) {
	t.Helper()
	resp, _ := app.postForm(t, "/admin/login", url.Values{"username": {testAdminUser}, "password": {testAdminPassword}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestPublicPages_Integration(t *testing.T) {
	app := setupIntegrationTest(t)

	t.Run("homepage lists the latest articles", func(t *testing.T) {
		resp, body := app.get(t, "/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Echhapa News")
		assert.Contains(t, body, "Global Climate Summit Results")
		assert.NotContains(t, body, "temporarily unavailable")
	})

	t.Run("article view counts", func(t *testing.T) {
		const slug = "sports-championship-update"
		for i := 0; i < 2; i++ {
			resp, body := app.get(t, "/article/"+slug)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, "Sports Championship Update")
		}
		var views int64
		require.NoError(t, app.DB.Get(&views, "SELECT views FROM articles WHERE slug = ?", slug))
		assert.Equal(t, int64(2), views)
	})

	t.Run("unknown article is a 404", func(t *testing.T) {
		resp, _ := app.get(t, "/article/no-such-story")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("category page", func(t *testing.T) {
		resp, body := app.get(t, "/category/world-news")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "World News")
	})

	t.Run("sitemap lists published articles", func(t *testing.T) {
		resp, body := app.get(t, "/sitemap.xml")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "<loc>http://news.test/article/cultural-festival-highlights</loc>")
		assert.Contains(t, body, "<loc>http://news.test/category/sports</loc>")
	})

	t.Run("robots", func(t *testing.T) {
		_, body := app.get(t, "/robots.txt")
		assert.Contains(t, body, "Sitemap: http://news.test/sitemap.xml")
	})
}

func TestHomepage_DatabaseDown_Integration(t *testing.T) {
	app := setupIntegrationTest(t)
	require.NoError(t, app.DB.Close())

	resp, body := app.get(t, "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Breaking: Major Economic Development Announced")
	assert.Contains(t, body, "Echhapa News", "site defaults are used when settings cannot be read")
	assert.Contains(t, body, "temporarily unavailable")
}

func TestAdminAccess_Integration(t *testing.T) {
	app := setupIntegrationTest(t)

	t.Run("anonymous visitors are sent to the login form", func(t *testing.T) {
		for _, path := range []string{"/admin", "/admin/articles", "/admin/layout"} {
			resp, _ := app.get(t, path)
			assert.Equal(t, http.StatusFound, resp.StatusCode, path)
			assert.Equal(t, "/admin/login", resp.Header.Get("Location"), path)
		}
	})

	t.Run("failed logins look alike", func(t *testing.T) {
		resp1, body1 := app.postForm(t, "/admin/login", url.Values{"username": {testAdminUser}, "password": {"wrong"}})
		resp2, body2 := app.postForm(t, "/admin/login", url.Values{"username": {"nobody"}, "password": {"wrong"}})

		assert.Equal(t, http.StatusUnauthorized, resp1.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
		assert.Contains(t, body1, "Invalid username or password")
		assert.Contains(t, body2, "Invalid username or password")
	})

	t.Run("signed-in admin reaches the back office", func(t *testing.T) {
		app.login(t)

		resp, body := app.get(t, "/admin")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Dashboard")

		resp, _ = app.get(t, "/admin/login")
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/admin", resp.Header.Get("Location"))
	})

	t.Run("logout ends the session", func(t *testing.T) {
		resp, _ := app.get(t, "/admin/logout")
		assert.Equal(t, http.StatusFound, resp.StatusCode)

		resp, _ = app.get(t, "/admin")
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
	})
}

func TestAdminArticles_Integration(t *testing.T) {
	app := setupIntegrationTest(t)
	app.login(t)

	t.Run("missing title re-renders the form", func(t *testing.T) {
		resp, body := app.postForm(t, "/admin/articles/add", url.Values{"content": {"Body"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Title is required")
	})

	t.Run("create then publish toggle", func(t *testing.T) {
		resp, _ := app.postForm(t, "/admin/articles/add", url.Values{
			"title":   {"Election Night Live"},
			"content": {"Polls have closed."},
			"status":  {"draft"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)

		var id int64
		require.NoError(t, app.DB.Get(&id, "SELECT id FROM articles WHERE slug = ?", "election-night-live"))

		// Drafts stay off the public site.
		resp, _ = app.get(t, "/article/election-night-live")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/admin/articles/%d/status", app.Server.URL, id), strings.NewReader(`{"status":"published"}`))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err = app.Client.Do(req)
		require.NoError(t, err)
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"success":true,"status":"published"}`, body)

		resp, _ = app.get(t, "/article/election-night-live")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAdminLayout_Integration(t *testing.T) {
	app := setupIntegrationTest(t)
	app.login(t)

	var ids []int64
	require.NoError(t, app.DB.Select(&ids, "SELECT id FROM categories WHERE parent_id IS NULL ORDER BY sort_order"))
	require.NotEmpty(t, ids)

	resp, _ := app.postForm(t, "/admin/categories/subcategory", url.Values{"parent_id": {fmt.Sprint(ids[0])}, "name": {"Asia"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	reversed := make([]string, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = fmt.Sprint(id)
	}

	t.Run("top-level order leaves positions distinct", func(t *testing.T) {
		resp, _ := app.postJSON(t, "/admin/layout/reorder", `{"ordered_ids":[`+strings.Join(reversed, ",")+`]}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var first int64
		require.NoError(t, app.DB.Get(&first, "SELECT id FROM categories WHERE parent_id IS NULL ORDER BY sort_order LIMIT 1"))
		assert.Equal(t, ids[len(ids)-1], first)
		assertDistinctSortOrder(t, app.DB)
	})

	t.Run("the editor sends parents followed by their subcategories", func(t *testing.T) {
		var sub int64
		require.NoError(t, app.DB.Get(&sub, "SELECT id FROM categories WHERE slug = 'asia'"))
		order := append([]string{fmt.Sprint(ids[0]), fmt.Sprint(sub)}, reversed[:len(reversed)-1]...)
		resp, _ := app.postJSON(t, "/admin/layout/reorder", `{"ordered_ids":[`+strings.Join(order, ",")+`]}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var pos int
		require.NoError(t, app.DB.Get(&pos, "SELECT sort_order FROM categories WHERE id = ?", sub))
		assert.Equal(t, 1, pos)
		assertDistinctSortOrder(t, app.DB)

		_, page := app.get(t, "/admin/layout")
		assert.Contains(t, page, fmt.Sprintf(`data-id="%d"`, sub), "subcategories are listed in the editor")
	})

	t.Run("unknown layout type", func(t *testing.T) {
		resp, body := app.postJSON(t, "/admin/layout/save-all",
			fmt.Sprintf(`[{"category_id":%d,"layout_type":"carousel","articles_count":4}]`, ids[0]))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"success":false,"error":"Unknown layout type"}`, body)
	})

	t.Run("single layout form", func(t *testing.T) {
		var before []string
		require.NoError(t, app.DB.Select(&before, "SELECT layout_type || ':' || articles_count FROM categories ORDER BY id"))

		invalid := []struct {
			name     string
			form     url.Values
			wantCode int
			flash    string
		}{
			{"unknown layout", url.Values{"category_id": {fmt.Sprint(ids[1])}, "layout_type": {"carousel"}, "articles_count": {"4"}}, http.StatusSeeOther, "Unknown layout type"},
			{"count out of range", url.Values{"category_id": {fmt.Sprint(ids[1])}, "layout_type": {"list-only"}, "articles_count": {"0"}}, http.StatusSeeOther, "Invalid parameter"},
			{"unknown category", url.Values{"category_id": {"99999"}, "layout_type": {"list-only"}, "articles_count": {"4"}}, http.StatusNotFound, ""},
		}
		for _, tc := range invalid {
			resp, _ := app.postForm(t, "/admin/layout/save", tc.form)
			require.Equal(t, tc.wantCode, resp.StatusCode, tc.name)
			if tc.flash != "" {
				_, page := app.get(t, "/admin/layout")
				assert.Contains(t, page, tc.flash, tc.name)
			}
		}
		var after []string
		require.NoError(t, app.DB.Select(&after, "SELECT layout_type || ':' || articles_count FROM categories ORDER BY id"))
		assert.Equal(t, before, after)

		resp, _ := app.postForm(t, "/admin/layout/save", url.Values{"category_id": {fmt.Sprint(ids[1])}, "layout_type": {"list-only"}, "articles_count": {"4"}})
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		var count int
		require.NoError(t, app.DB.Get(&count, "SELECT articles_count FROM categories WHERE id = ?", ids[1]))
		assert.Equal(t, 4, count)
	})

	t.Run("an invalid entry rejects the whole batch", func(t *testing.T) {
		var before []string
		require.NoError(t, app.DB.Select(&before, "SELECT layout_type || ':' || articles_count FROM categories ORDER BY id"))

		resp, _ := app.postJSON(t, "/admin/layout/save-all", fmt.Sprintf(
			`[{"category_id":%d,"layout_type":"magazine","articles_count":5},{"category_id":%d,"layout_type":"grid","articles_count":0}]`,
			ids[0], ids[1]))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var after []string
		require.NoError(t, app.DB.Select(&after, "SELECT layout_type || ':' || articles_count FROM categories ORDER BY id"))
		assert.Equal(t, before, after)
	})

	t.Run("save all", func(t *testing.T) {
		resp, body := app.postJSON(t, "/admin/layout/save-all",
			fmt.Sprintf(`[{"category_id":%d,"layout_type":"magazine","articles_count":5,"show_images":true}]`, ids[0]))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"success":true,"saved":1}`, body)
	})

	t.Run("export", func(t *testing.T) {
		resp, exported := app.get(t, "/admin/layout/export")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
		assert.Contains(t, exported, `"slug":"world-news"`)
	})
}

// assertDistinctSortOrder fails when two categories share a position.
func assertDistinctSortOrder(t *testing.T, db *sqlx.DB) {
	t.Helper()
	var total, distinct int
	require.NoError(t, db.Get(&total, "SELECT COUNT(*) FROM categories"))
	require.NoError(t, db.Get(&distinct, "SELECT COUNT(DISTINCT sort_order) FROM categories"))
	assert.Equal(t, total, distinct)
}

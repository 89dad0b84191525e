package main

import (
	"context"
	"errors"
	"fmt"
	"go-news-portal/internal/auth"
	"go-news-portal/internal/cache"
	"go-news-portal/internal/data"
	"go-news-portal/internal/handler"
	"go-news-portal/internal/logger"
	"go-news-portal/internal/middleware"
	"go-news-portal/internal/service"
	"go-news-portal/internal/session"
	"go-news-portal/internal/view"
	"go-news-portal/web"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/casbin/casbin/v2/persist"
	"github.com/jmoiron/sqlx"
)

const cachePurgeInterval = 10 * time.Minute

func runServe(ctx context.Context) error {
	// --- Configuration and Logger ---
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" || cfg.Session.SecretKey == defaultSecret {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure PORTAL_SESSION_SECRET_KEY environment variable.")
	}

	// --- Database ---
	// An unreachable database is not fatal: the public pages fall back to built-in content.
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to open database")
	}
	defer db.Close()

	dbUp := data.Ping(ctx, db, log)
	if dbUp {
		if err := prepareDatabase(ctx, db, cfg.Admin, log); err != nil {
			log.Fatal(err, "Failed to prepare database")
		}
	} else {
		log.Warn("Skipping migrations and seeding; starting in degraded mode")
	}

	// --- Session Management Setup ---
	sessionManager := scs.New()
	sessionManager.Store = session.NewFailSafeStore(sessionStore(db, dbUp), log)
	sessionManager.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error(err, "Session error")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Name = "portal_session"
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authentication and authorization...")
	var adapter persist.Adapter
	if dbUp {
		adapter = auth.NewSQLAdapter(cfg.DB)
	}
	enforcer, err := auth.NewEnforcer(adapter)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	auth.SeedDefaultPolicies(enforcer, log)

	var authenticator *auth.Authenticator
	if cfg.OIDC.IssuerURL != "" {
		authenticator, err = auth.NewAuthenticator(ctx, cfg.OIDC)
		if err != nil {
			// SSO is optional; password login keeps working.
			log.Error(err, "Failed to initialize OIDC provider; single sign-on disabled")
			authenticator = nil
		}
	}

	// --- View Template Initialization ---
	viewService, err := view.New(web.TemplateFS)
	if err != nil {
		log.Fatal(err, "Failed to initialize view templates")
	}

	// --- Cache Initialization ---
	var settingsCache service.Cache
	if c, err := cache.New(cfg.Cache); err != nil {
		log.Error(err, "Failed to initialize settings cache; settings are read on every request")
	} else {
		defer c.Close()
		settingsCache = c
		go purgeCache(ctx, c, log)
	}

	// --- Dependency Injection and Handler Initialization ---
	articleService := service.NewArticleService(data.NewSQLArticleRepository(db), log)
	layoutService := service.NewLayoutService(data.NewCategoryRepository(db), data.NewLayoutSettingRepository(db))
	adService := service.NewAdService(data.NewAdRepository(db))
	authService := service.NewAuthService(data.NewUserRepository(db), log)
	settingsService := service.NewSettingsService(data.NewSettingRepository(db), settingsCache, log)
	homeService := service.NewHomeService(articleService, layoutService, adService, log)
	mediaService := service.NewMediaService(cfg.Upload)
	if err := os.MkdirAll(mediaService.Dir(), 0o755); err != nil {
		log.Error(err, "Failed to create upload directory")
	}

	publicHandler := handler.NewPublicHandler(homeService, articleService, layoutService, adService, viewService, log)
	authHandler := handler.NewAuthHandler(authService, authenticator, sessionManager, viewService, log)
	adminHandler := handler.NewAdminHandler(articleService, layoutService, adService, authService, settingsService, mediaService, sessionManager, viewService, log)
	seoHandler := handler.NewSeoHandler(articleService, layoutService, cfg.Server.BaseURL, log)

	// --- Router Setup ---
	router := handler.NewRouter(publicHandler, authHandler, adminHandler, seoHandler, handler.Middlewares{
		Authz:    middleware.Authorizer(enforcer, sessionManager, authService, log),
		Settings: middleware.SiteSettings(settingsService),
		Error:    middleware.Error(log, viewService),
	}, sessionManager, mediaService.Dir())

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exiting")
	return nil
}

// sessionStore picks the scs store matching the database driver. Sessions are kept
// in memory while the database is unreachable.
func sessionStore(db *sqlx.DB, dbUp bool) scs.Store {
	if !dbUp {
		return memstore.New()
	}
	switch data.DialectOf(db) {
	case data.Postgres:
		return postgresstore.New(db.DB)
	case data.SQLite:
		return sqlite3store.New(db.DB)
	default:
		return mysqlstore.New(db.DB)
	}
}

// purgeCache drops expired cache entries until ctx ends.
func purgeCache(ctx context.Context, c *cache.Cache, log logger.Logger) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.PurgeExpired(ctx)
			if err != nil {
				log.Error(err, "Failed to purge cache")
				continue
			}
			if n > 0 {
				log.Debug(fmt.Sprintf("Purged %d expired cache entries", n))
			}
		}
	}
}

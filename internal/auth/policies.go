package auth

import (
	"fmt"
	"go-news-portal/internal/logger"

	"github.com/casbin/casbin/v2"
)

// DefaultPolicies opens the public site to everyone and the whole back office to
// any signed-in account, whatever its role.
var DefaultPolicies = [][]string{
	{SubjectAnonymous, "/", "GET"},
	{SubjectAnonymous, "/article/:slug", "GET"},
	{SubjectAnonymous, "/category/:slug", "GET"},
	{SubjectAnonymous, "/ads/:id/click", "GET"},
	{SubjectAnonymous, "/robots.txt", "GET"},
	{SubjectAnonymous, "/sitemap.xml", "GET"},
	{SubjectAnonymous, "/static/*", "GET"},
	{SubjectAnonymous, "/uploads/*", "GET"},
	{SubjectAnonymous, "/admin/login", "(GET)|(POST)"},
	{SubjectAnonymous, "/admin/logout", "GET"},
	{SubjectAnonymous, "/auth/login", "GET"},
	{SubjectAnonymous, "/auth/callback", "GET"},

	{SubjectAdmin, "/admin", "GET"},
	{SubjectAdmin, "/admin/*", "(GET)|(POST)|(DELETE)"},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start.
func SeedDefaultPolicies(e casbin.IEnforcer, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range DefaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	// Signed-in users can do everything anonymous visitors can.
	if has, _ := e.HasRoleForUser(SubjectAdmin, SubjectAnonymous); !has {
		if _, err := e.AddRoleForUser(SubjectAdmin, SubjectAnonymous); err != nil {
			log.Error(err, "Failed to add role 'admin' -> 'anonymous'")
		}
	}
	log.Info("Policy seeding complete.")
}

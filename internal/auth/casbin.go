package auth

import (
	"go-news-portal/internal/config"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	"github.com/casbin/casbin/v2/util"
	sqlxadapter "github.com/memwey/casbin-sqlx-adapter"
)

// Subjects known to the policy. Every signed-in account acts as SubjectAdmin,
// whatever role is stored on the user row.
const (
	SubjectAnonymous = "anonymous"
	SubjectAdmin     = "admin"
)

// modelConf is the access model: role inheritance, path patterns in keyMatch2
// syntax and a method regex.
const modelConf = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// NewSQLAdapter stores policies in the casbin_rule table of the application database.
// The adapter connects eagerly, so only call it once the database is known to be reachable.
func NewSQLAdapter(cfg config.DBConfig) persist.Adapter {
	opts := &sqlxadapter.AdapterOptions{
		DriverName:     cfg.DriverName(),
		DataSourceName: cfg.DataSourceName(),
		TableName:      "casbin_rule",
	}
	return sqlxadapter.NewAdapterFromOptions(opts)
}

// NewEnforcer creates and configures a new Casbin enforcer from the embedded model.
// With a nil adapter the policies live in memory only, which is what tests and a
// start without database use.
func NewEnforcer(adapter persist.Adapter) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.Enforcer
	if adapter == nil {
		enforcer, err = casbin.NewEnforcer(m)
	} else {
		enforcer, err = casbin.NewEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}

	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)

	if adapter != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	return enforcer, nil
}

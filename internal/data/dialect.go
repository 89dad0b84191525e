package data

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Dialect captures the few SQL differences between the supported stores.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
	SQLite
)

// DialectOf derives the dialect from the pool's driver name.
func DialectOf(db *sqlx.DB) Dialect {
	switch db.DriverName() {
	case "pgx", "postgres":
		return Postgres
	case "sqlite3":
		return SQLite
	default:
		return MySQL
	}
}

// Name is the migration directory and golang-migrate database name.
func (d Dialect) Name() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite3"
	default:
		return "mysql"
	}
}

// insertID runs an INSERT and returns the generated id. PostgreSQL has no
// LastInsertId, so the statement is extended with RETURNING there.
// The query must use '?' placeholders; it is rebound for the driver.
func insertID(ctx context.Context, d Dialect, q sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	query = q.Rebind(query)
	if d == Postgres {
		var id int64
		if err := q.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, classifyError(err)
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classifyError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, classifyError(err)
	}
	return id, nil
}

// upsertSetting returns the statement that inserts or overwrites a site setting.
func (d Dialect) upsertSetting() string {
	if d == MySQL {
		return `INSERT INTO site_settings (setting_key, setting_value, setting_type, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value), setting_type = VALUES(setting_type), updated_at = CURRENT_TIMESTAMP`
	}
	return `INSERT INTO site_settings (setting_key, setting_value, setting_type, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value, setting_type = excluded.setting_type, updated_at = CURRENT_TIMESTAMP`
}

// insertIgnore turns "INSERT INTO t (...) VALUES (...)" into a statement that
// silently skips rows violating a unique key.
func (d Dialect) insertIgnore(table, columnsAndValues string) string {
	if d == MySQL {
		return "INSERT IGNORE INTO " + table + " " + columnsAndValues
	}
	return "INSERT INTO " + table + " " + columnsAndValues + " ON CONFLICT DO NOTHING"
}

// notExpr returns the boolean negation of a column usable in an UPDATE.
func (d Dialect) notExpr(column string) string {
	if d == MySQL || d == SQLite {
		return "CASE WHEN " + column + " THEN 0 ELSE 1 END"
	}
	return "NOT " + column
}

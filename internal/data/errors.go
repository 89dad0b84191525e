package data

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConnectionUnavailable is returned when the store cannot be reached.
	ErrConnectionUnavailable = errors.New("database connection unavailable")

	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrInvalidLayoutType is returned for layout names outside the catalogue.
	ErrInvalidLayoutType = errors.New("invalid layout type")
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

// classifyError folds driver specific failures into the package's error taxonomy.
// The original error stays in the chain for logging.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if isDuplicate(err) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}
	if isConnectionFailure(err) {
		return fmt.Errorf("%w: %w", ErrConnectionUnavailable, err)
	}
	return err
}

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == postgresUniqueViolate
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrCantOpen {
		return true
	}
	// database/sql does not export its closed-pool error.
	return strings.Contains(err.Error(), "sql: database is closed")
}

// IsUnavailable reports whether err means the store could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrConnectionUnavailable)
}

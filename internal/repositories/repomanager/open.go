package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cryptify/internal/filex"
	"github.com/dmitrijs2005/cryptify/internal/logging"
	"github.com/pressly/goose/v3"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open connects to the database, applies migrations and returns the handle
// together with the matching RepositoryManager. For SQLite the directory of
// the database file is created when missing. Migration progress goes to
// logger at debug level.
func Open(ctx context.Context, driver, dsn string, logger logging.Logger) (*sql.DB, RepositoryManager, error) {
	var rm RepositoryManager

	switch driver {
	case DriverSQLite:
		if err := filex.EnsureParentDir(sqliteFilePath(dsn)); err != nil {
			return nil, nil, err
		}
		dsn = sqliteDSN(dsn)
		rm = NewSQLiteRepositoryManager()
	case DriverPostgres:
		rm = NewPostgresRepositoryManager()
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	goose.SetLogger(logging.NewPrintfLogger(logger, "component", "migrations"))
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}

	return db, rm, nil
}

func sqliteFilePath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == ":memory:" {
		return ""
	}
	return path
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

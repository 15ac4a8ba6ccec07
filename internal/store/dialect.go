package store

import (
	"fmt"

	"github.com/dmitrijs2005/consolecache/internal/dbx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect isolates what differs between backing engines. The SQL itself is
// shared: both engines accept ON CONFLICT upserts and substr().
type dialect struct {
	name        string
	driverName  string
	gooseName   string
	placeholder dbx.Placeholder
	pragmas     []string
	maxConns    int
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name:        DriverSQLite,
		driverName:  "sqlite",
		gooseName:   "sqlite3",
		placeholder: dbx.Question,
		pragmas: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
		},
		// SQLite only supports one writer at a time.
		maxConns: 1,
	},
	DriverPostgres: {
		name:        DriverPostgres,
		driverName:  "pgx",
		gooseName:   "pgx",
		placeholder: dbx.Dollar,
	},
}

func dialectFor(driver string) (dialect, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported store driver %q", driver)
	}
	return d, nil
}

func (d dialect) q(query string) string {
	return dbx.Rebind(d.placeholder, query)
}

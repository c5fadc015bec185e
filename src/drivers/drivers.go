/*
Package drivers keeps track of the SQL dialects the query builder can
render for. A dialect is looked up by the type of the database/sql driver
of a connection, or by the name it was registered with.
*/
package drivers

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/go-sql-driver/mysql"
	pg_stdlib "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type SupportsReturningType string

const (
	SupportsReturningNone         SupportsReturningType = ""
	SupportsReturningLastInsertId SupportsReturningType = "last_insert_id"
	SupportsReturningColumns      SupportsReturningType = "columns"
)

type (
	DriverPostgres = pg_stdlib.Driver
	DriverMySQL    = mysql.MySQLDriver
	DriverSQLite   = sqlite3.SQLiteDriver
)

// Dialect holds everything the compiler needs to know
// about the SQL flavour of a database.
type Dialect struct {
	// Name is the database/sql driver name, e.g. "sqlite3".
	Name string

	// Driver is a prototype of the registered driver.
	Driver driver.Driver

	SupportsReturning SupportsReturningType

	// QuoteChar is used to quote table, alias and column names.
	QuoteChar string

	// LimitAll is rendered as the LIMIT when only an offset is set.
	// Empty means the database accepts OFFSET without LIMIT.
	LimitAll string

	// MaterializeSubqueries wraps subqueries reading the table
	// an UPDATE or DELETE writes to in a derived table.
	MaterializeSubqueries bool

	// RowLocking reports whether SELECT ... FOR UPDATE is understood.
	RowLocking bool

	bindType int
}

var (
	mu      sync.RWMutex
	Drivers = make(map[reflect.Type]*Dialect)
	byName  = make(map[string]*Dialect)
)

func init() {
	RegisterDriver(&DriverSQLite{}, &Dialect{
		Name:              "sqlite3",
		SupportsReturning: SupportsReturningColumns,
		QuoteChar:         `"`,
		LimitAll:          "-1",
	})
	RegisterDriver(&DriverMySQL{}, &Dialect{
		Name:                  "mysql",
		SupportsReturning:     SupportsReturningLastInsertId,
		QuoteChar:             "`",
		LimitAll:              "18446744073709551615",
		MaterializeSubqueries: true,
		RowLocking:            true,
	})
	RegisterDriver(&DriverPostgres{}, &Dialect{
		Name:              "postgres",
		SupportsReturning: SupportsReturningColumns,
		QuoteChar:         `"`,
		RowLocking:        true,
	}, "pgx")
}

// RegisterDriver registers a dialect for the given driver.
//
// This is used to determine the SQL flavour of a *sql.DB.
//
// If your driver is not one of:
// - github.com/go-sql-driver/mysql.MySQLDriver
// - github.com/mattn/go-sqlite3.SQLiteDriver
// - github.com/jackc/pgx/v5/stdlib.Driver
//
// Then it explicitly needs to be registered here.
func RegisterDriver(drv driver.Driver, dialect *Dialect, aliases ...string) {
	if drv == nil || dialect == nil || dialect.Name == "" {
		panic("drivers: driver, dialect and dialect name are required")
	}

	dialect.Driver = drv
	dialect.bindType = sqlx.BindType(dialect.Name)
	if dialect.QuoteChar == "" {
		dialect.QuoteChar = `"`
	}

	mu.Lock()
	defer mu.Unlock()
	Drivers[reflect.TypeOf(drv)] = dialect
	byName[dialect.Name] = dialect
	for _, alias := range aliases {
		byName[alias] = dialect
	}
}

// Get returns the dialect registered for the driver's type.
func Get(drv driver.Driver) (*Dialect, bool) {
	mu.RLock()
	defer mu.RUnlock()
	var d, ok = Drivers[reflect.TypeOf(drv)]
	return d, ok
}

// ByName returns the dialect registered under the given driver name or alias.
func ByName(name string) (*Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()
	var d, ok = byName[name]
	if !ok {
		return nil, fmt.Errorf("dialect %q: %w", name, query_errors.ErrUnknownDriver)
	}
	return d, nil
}

// ForDB returns the dialect of an open database.
func ForDB(db *sql.DB) (*Dialect, error) {
	if db == nil {
		return nil, query_errors.ErrNoDatabase
	}
	var drv = db.Driver()
	if d, ok := Get(drv); ok {
		return d, nil
	}
	return nil, fmt.Errorf("driver %T: %w", drv, query_errors.ErrUnknownDriver)
}

// SupportsReturning returns the type of returning supported by the database.
// It can be one of the following:
//
// - SupportsReturningNone: no returning supported
// - SupportsReturningLastInsertId: last insert id supported
// - SupportsReturningColumns: returning columns supported
func SupportsReturning(db *sql.DB) SupportsReturningType {
	var d, err = ForDB(db)
	if err != nil {
		return SupportsReturningNone
	}
	return d.SupportsReturning
}

// Quote quotes a single identifier.
func (d *Dialect) Quote(name string) string {
	return d.QuoteChar + name + d.QuoteChar
}

// Column renders a column qualified by a table alias.
func (d *Dialect) Column(alias, column string) string {
	if alias == "" {
		return d.Quote(column)
	}
	return d.Quote(alias) + "." + d.Quote(column)
}

// Rebind rewrites the '?' placeholders of a query to the bind style of the driver.
func (d *Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.bindType, query)
}

// Placeholders returns n comma separated '?' placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

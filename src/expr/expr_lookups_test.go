package expr_test

import (
	"database/sql/driver"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/expr"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

var (
	sqliteDriver   = &drivers.DriverSQLite{}
	postgresDriver = &drivers.DriverPostgres{}
	mysqlDriver    = &drivers.DriverMySQL{}
)

type lookupTest struct {
	name   string
	driver driver.Driver
	lookup string
	value  any
	sql    string
	args   []any
}

func TestResolveLookups(t *testing.T) {
	var tests = []lookupTest{
		{"exact", sqliteDriver, "exact", 1, `"u"."id" = ?`, []any{1}},
		{"exactNil", sqliteDriver, "exact", nil, `"u"."id" IS NULL`, []any{}},
		{"eq", sqliteDriver, "eq", 1, `"u"."id" = ?`, []any{1}},
		{"ne", sqliteDriver, "ne", 1, `"u"."id" != ?`, []any{1}},
		{"ge", sqliteDriver, "ge", 1, `"u"."id" >= ?`, []any{1}},
		{"lte", sqliteDriver, "lte", 1, `"u"."id" <= ?`, []any{1}},
		{"in", sqliteDriver, "in", []int{1, 2, 3}, `"u"."id" IN (?, ?, ?)`, []any{1, 2, 3}},
		{"notin", sqliteDriver, "notin", []string{"a"}, `"u"."id" NOT IN (?)`, []any{"a"}},
		{"inScalar", sqliteDriver, "in", 4, `"u"."id" IN (?)`, []any{4}},
		{"isnullTrue", sqliteDriver, "isnull", true, `"u"."id" IS NULL`, []any{}},
		{"isnullFalse", sqliteDriver, "isnull", false, `"u"."id" IS NOT NULL`, []any{}},
		{"between", sqliteDriver, "between", []int{1, 5}, `"u"."id" BETWEEN ? AND ?`, []any{1, 5}},
		{"range", sqliteDriver, "range", [2]int{1, 5}, `"u"."id" BETWEEN ? AND ?`, []any{1, 5}},
		{"contains", sqliteDriver, "contains", "oh", `"u"."id" LIKE ?`, []any{"%oh%"}},
		{"icontains", sqliteDriver, "icontains", "oh", `LOWER("u"."id") LIKE LOWER(?)`, []any{"%oh%"}},
		{"icontainsPostgres", postgresDriver, "icontains", "oh", `"u"."id" ILIKE ?`, []any{"%oh%"}},
		{"startswith", sqliteDriver, "startswith", "Jo", `"u"."id" LIKE ?`, []any{"Jo%"}},
		{"iendswith", mysqlDriver, "iendswith", "hn", `LOWER("u"."id") LIKE LOWER(?)`, []any{"%hn"}},
		{"ilikeMySQL", mysqlDriver, "ilike", "J%", `LOWER("u"."id") LIKE LOWER(?)`, []any{"J%"}},
		{"ilikePostgres", postgresDriver, "ilike", "J%", `"u"."id" ILIKE ?`, []any{"J%"}},
		{"yearSQLite", sqliteDriver, "year", 2024, `CAST(strftime('%Y', "u"."id") AS INTEGER) = ?`, []any{2024}},
		{"monthGtSQLite", sqliteDriver, "month_gt", 3, `CAST(strftime('%m', "u"."id") AS INTEGER) > ?`, []any{3}},
		{"dayPostgres", postgresDriver, "day_le", 3, `EXTRACT(DAY FROM "u"."id") <= ?`, []any{3}},
		{"yearMySQL", mysqlDriver, "year_ne", 2020, `YEAR("u"."id") != ?`, []any{2020}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var sql, args, err = expr.Resolve(test.driver, test.lookup, `"u"."id"`, test.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sql != test.sql {
				t.Fatalf("expected SQL %q, got %q", test.sql, sql)
			}
			if !reflect.DeepEqual(args, test.args) {
				t.Fatalf("expected args %v, got %v", test.args, args)
			}
		})
	}
}

func TestResolveLookupErrors(t *testing.T) {
	var tests = []struct {
		name   string
		lookup string
		value  any
		err    error
	}{
		{"unknown", "doesnotexist", 1, query_errors.ErrLookupNotFound},
		{"emptyIn", "in", []int{}, query_errors.ErrLookupArgs},
		{"isnullNotBool", "isnull", 1, query_errors.ErrLookupArgs},
		{"betweenOneValue", "between", []int{1}, query_errors.ErrLookupArgs},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var _, _, err = expr.Resolve(sqliteDriver, test.lookup, `"u"."id"`, test.value)
			if !errors.Is(err, test.err) {
				t.Fatalf("expected %v, got %v", test.err, err)
			}
		})
	}
}

func TestIsLookup(t *testing.T) {
	for _, name := range []string{"exact", "in", "icontains", "year_ge", "day"} {
		if !expr.IsLookup(name) {
			t.Fatalf("expected %q to be a registered lookup", name)
		}
	}

	if expr.IsLookup("name") {
		t.Fatalf("did not expect %q to be a registered lookup", "name")
	}

	var names = expr.Lookups()
	if !slices.IsSorted(names) || !slices.Contains(names, "icontains") || !slices.Contains(names, "year_ge") {
		t.Fatalf("expected the sorted lookup names, got %v", names)
	}
}

func TestRegisterDriverOverride(t *testing.T) {
	expr.RegisterLookup("startswith_ci", func(d driver.Driver, col string, value []any) (string, []any, error) {
		return "generic", value, nil
	})
	expr.RegisterLookup("startswith_ci", func(d driver.Driver, col string, value []any) (string, []any, error) {
		return "postgres", value, nil
	}, postgresDriver)

	if sql, _, _ := expr.Resolve(sqliteDriver, "startswith_ci", "c", "x"); sql != "generic" {
		t.Fatalf("expected the global lookup for sqlite, got %q", sql)
	}
	if sql, _, _ := expr.Resolve(postgresDriver, "startswith_ci", "c", "x"); sql != "postgres" {
		t.Fatalf("expected the postgres override, got %q", sql)
	}
}

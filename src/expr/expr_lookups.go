package expr

import (
	"database/sql/driver"
	"fmt"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

func init() {
	RegisterLookup("exact", compare("="))
	RegisterLookup("eq", compare("="))
	RegisterLookup("ne", compare("!="))
	RegisterLookup("not", compare("!="))
	RegisterLookup("gt", compare(">"))
	RegisterLookup("gte", compare(">="))
	RegisterLookup("ge", compare(">="))
	RegisterLookup("lt", compare("<"))
	RegisterLookup("lte", compare("<="))
	RegisterLookup("le", compare("<="))

	RegisterLookup("iexact", func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs("iexact", value, 1); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("LOWER(%s) = LOWER(?)", field), value, nil
	})
	RegisterLookup("like", func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs("like", value, 1); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s LIKE ?", field), value, nil
	})
	RegisterLookup("ilike", func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs("ilike", value, 1); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", field), value, nil
	})
	RegisterLookup("ilike", func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs("ilike", value, 1); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s ILIKE ?", field), value, nil
	}, &drivers.DriverPostgres{})

	for _, op := range []string{"contains", "startswith", "endswith"} {
		RegisterLookup(op, pattern(op, "%s LIKE ?"))
		RegisterLookup("i"+op, pattern("i"+op, "LOWER(%s) LIKE LOWER(?)"))
		RegisterLookup("i"+op, pattern("i"+op, "%s ILIKE ?"), &drivers.DriverPostgres{})
	}

	RegisterLookup("in", inList("IN"))
	RegisterLookup("notin", inList("NOT IN"))

	RegisterLookup("isnull", func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs("isnull", value, 1); err != nil {
			return "", nil, err
		}
		var isNull, ok = value[0].(bool)
		if !ok {
			return "", nil, fmt.Errorf(
				"isnull lookup requires a bool, got %T: %w",
				value[0], query_errors.ErrLookupArgs,
			)
		}
		if isNull {
			return fmt.Sprintf("%s IS NULL", field), []any{}, nil
		}
		return fmt.Sprintf("%s IS NOT NULL", field), []any{}, nil
	})

	RegisterLookup("between", between("between"))
	RegisterLookup("range", between("range"))

	for _, part := range datePartNames {
		for _, cmp := range datePartComparisons {
			var name = part + cmp.suffix
			RegisterLookup(name, datePart(name, cmp.op, func(col string) string {
				return fmt.Sprintf("EXTRACT(%s FROM %s)", datePartSQL[part].standard, col)
			}))
			RegisterLookup(name, datePart(name, cmp.op, func(col string) string {
				return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", datePartSQL[part].strftime, col)
			}), &drivers.DriverSQLite{})
			RegisterLookup(name, datePart(name, cmp.op, func(col string) string {
				return fmt.Sprintf("%s(%s)", datePartSQL[part].standard, col)
			}), &drivers.DriverMySQL{})
		}
	}
}

var datePartNames = []string{"year", "month", "day"}

var datePartSQL = map[string]struct {
	standard string
	strftime string
}{
	"year":  {standard: "YEAR", strftime: "%Y"},
	"month": {standard: "MONTH", strftime: "%m"},
	"day":   {standard: "DAY", strftime: "%d"},
}

var datePartComparisons = []struct {
	suffix string
	op     string
}{
	{"", "="},
	{"_ne", "!="},
	{"_gt", ">"},
	{"_ge", ">="},
	{"_lt", "<"},
	{"_le", "<="},
}

func compare(op string) LookupFunc {
	return func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs(op, value, 1); err != nil {
			return "", nil, err
		}
		if value[0] == nil {
			// comparing to NULL with = never matches
			switch op {
			case "=":
				return fmt.Sprintf("%s IS NULL", field), []any{}, nil
			case "!=":
				return fmt.Sprintf("%s IS NOT NULL", field), []any{}, nil
			}
		}
		return fmt.Sprintf("%s %s ?", field, op), value, nil
	}
}

func pattern(op, format string) LookupFunc {
	return func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs(op, value, 1); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf(format, field), normalizeArgs(op, value), nil
	}
}

func inList(op string) LookupFunc {
	return func(d driver.Driver, field string, value []any) (string, []any, error) {
		var list = flatten(value)
		if len(list) == 0 {
			return "", nil, fmt.Errorf(
				"no values provided for %s lookup: %w",
				op, query_errors.ErrLookupArgs,
			)
		}
		return fmt.Sprintf("%s %s (%s)", field, op, drivers.Placeholders(len(list))), list, nil
	}
}

func between(name string) LookupFunc {
	return func(d driver.Driver, field string, value []any) (string, []any, error) {
		var bounds = flatten(value)
		if err := requireArgs(name, bounds, 2); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", field), bounds, nil
	}
}

func datePart(name, op string, extract func(col string) string) LookupFunc {
	return func(d driver.Driver, field string, value []any) (string, []any, error) {
		if err := requireArgs(name, value, 1); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", extract(field), op), value, nil
	}
}

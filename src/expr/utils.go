package expr

import (
	"fmt"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

func normalizeArgs(op string, value []any) []any {
	var out = make([]any, len(value))
	for i, v := range value {
		var s, ok = v.(string)
		if !ok {
			out[i] = v
			continue
		}
		switch op {
		case "icontains", "contains":
			out[i] = "%" + s + "%"
		case "istartswith", "startswith":
			out[i] = s + "%"
		case "iendswith", "endswith":
			out[i] = "%" + s
		default:
			out[i] = s
		}
	}
	return out
}

// flatten expands slices and arrays (except []byte) into a flat argument list.
func flatten(value []any) []any {
	var list = make([]any, 0, len(value))
	for _, v := range value {
		var rV = reflect.ValueOf(v)
		if !rV.IsValid() {
			list = append(list, nil)
			continue
		}

		if (rV.Kind() == reflect.Slice || rV.Kind() == reflect.Array) && rV.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rV.Len(); i++ {
				list = append(list, rV.Index(i).Interface())
			}
			continue
		}

		list = append(list, v)
	}
	return list
}

func requireArgs(lookup string, value []any, n int) error {
	if len(value) != n {
		return fmt.Errorf(
			"%s lookup requires exactly %d value(s), got %d %+v: %w",
			lookup, n, len(value), value, query_errors.ErrLookupArgs,
		)
	}
	return nil
}

package expr

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

// LookupFunc renders a lookup for an already quoted column.
//
// The returned SQL uses '?' placeholders, the caller rebinds
// them for the driver.
type LookupFunc func(d driver.Driver, col string, value []any) (sql string, args []any, err error)

type lookupRegistry struct {
	mu            sync.RWMutex
	lookupsGlobal map[string]LookupFunc
	lookupsLocal  map[reflect.Type]map[string]LookupFunc
}

var lookups = &lookupRegistry{
	lookupsGlobal: make(map[string]LookupFunc),
	lookupsLocal:  make(map[reflect.Type]map[string]LookupFunc),
}

// RegisterLookup registers a lookup.
//
// Without drivers the lookup is registered globally, otherwise it
// only overrides the global lookup for the given drivers.
func RegisterLookup(name string, fn LookupFunc, drivers ...driver.Driver) {
	if name == "" || fn == nil {
		panic("lookup name and function are required")
	}

	lookups.mu.Lock()
	defer lookups.mu.Unlock()

	if len(drivers) == 0 {
		lookups.lookupsGlobal[name] = fn
		return
	}

	for _, drv := range drivers {
		var t = reflect.TypeOf(drv)
		if _, ok := lookups.lookupsLocal[t]; !ok {
			lookups.lookupsLocal[t] = make(map[string]LookupFunc)
		}
		lookups.lookupsLocal[t][name] = fn
	}
}

// IsLookup reports whether a lookup with the given name is registered,
// either globally or for any driver.
func IsLookup(name string) bool {
	lookups.mu.RLock()
	defer lookups.mu.RUnlock()
	if _, ok := lookups.lookupsGlobal[name]; ok {
		return true
	}
	for _, local := range lookups.lookupsLocal {
		if _, ok := local[name]; ok {
			return true
		}
	}
	return false
}

// Lookups returns the names of all registered lookups, sorted.
func Lookups() []string {
	lookups.mu.RLock()
	defer lookups.mu.RUnlock()
	var seen = make(map[string]struct{}, len(lookups.lookupsGlobal))
	for name := range lookups.lookupsGlobal {
		seen[name] = struct{}{}
	}
	for _, local := range lookups.lookupsLocal {
		for name := range local {
			seen[name] = struct{}{}
		}
	}
	var names = make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *lookupRegistry) lookupFunc(drv driver.Driver, name string) (LookupFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if local, ok := r.lookupsLocal[reflect.TypeOf(drv)]; ok {
		if fn, ok := local[name]; ok {
			return fn, true
		}
	}
	var fn, ok = r.lookupsGlobal[name]
	return fn, ok
}

// Resolve renders the named lookup for a column.
//
// The value is passed to the lookup as a single argument, slices
// are flattened by the lookups which accept multiple values.
func Resolve(drv driver.Driver, name string, col string, value any) (string, []any, error) {
	var fn, ok = lookups.lookupFunc(drv, name)
	if !ok {
		return "", nil, fmt.Errorf(
			"no lookup %q found for driver %T: %w",
			name, drv, query_errors.ErrLookupNotFound,
		)
	}

	var sql, args, err = fn(drv, col, []any{value})
	if err != nil {
		return "", nil, fmt.Errorf("error in lookup %q: %w", name, err)
	}
	return sql, args, nil
}

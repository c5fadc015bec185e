package sqlite

import (
	"database/sql"
	"reflect"
	"time"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/migrator"
	"github.com/Nigel2392/go-django-repositories/src/models"
)

// SQLITE TYPES
func init() {
	// register kinds
	migrator.RegisterColumnKind(&drivers.DriverSQLite{}, []reflect.Kind{reflect.String}, type__string)
	migrator.RegisterColumnKind(&drivers.DriverSQLite{}, []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64}, type__int)
	migrator.RegisterColumnKind(&drivers.DriverSQLite{}, []reflect.Kind{reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64}, type__int)
	migrator.RegisterColumnKind(&drivers.DriverSQLite{}, []reflect.Kind{reflect.Float32, reflect.Float64}, type__float)
	migrator.RegisterColumnKind(&drivers.DriverSQLite{}, []reflect.Kind{reflect.Bool}, type__bool)

	// register types
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullString{}, type__string)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullFloat64{}, type__float)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullInt64{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullInt32{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullInt16{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullBool{}, type__bool)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullByte{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, sql.NullTime{}, type__datetime)
	migrator.RegisterColumnType(&drivers.DriverSQLite{}, time.Time{}, type__datetime)

	// rowid aliases must be declared as exactly INTEGER
	migrator.RegisterAutoIncrement(&drivers.DriverSQLite{}, func(string) string {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	})
}

func type__string(f *models.Field) string {
	return "TEXT"
}

func type__float(f *models.Field) string {
	return "REAL"
}

func type__int(f *models.Field) string {
	switch f.Type.Kind() {
	case reflect.Int8, reflect.Uint8:
		return "SMALLINT"
	case reflect.Int16, reflect.Uint16:
		return "INT"
	}
	return "BIGINT"
}

func type__bool(f *models.Field) string {
	return "BOOLEAN"
}

func type__datetime(f *models.Field) string {
	return "TIMESTAMP"
}

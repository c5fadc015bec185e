package postgres

import (
	"database/sql"
	"reflect"
	"time"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/migrator"
	"github.com/Nigel2392/go-django-repositories/src/models"
)

// POSTGRES TYPES
func init() {
	// register kinds
	migrator.RegisterColumnKind(&drivers.DriverPostgres{}, []reflect.Kind{reflect.String}, type__string)
	migrator.RegisterColumnKind(&drivers.DriverPostgres{}, []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64}, type__int)
	migrator.RegisterColumnKind(&drivers.DriverPostgres{}, []reflect.Kind{reflect.Float32, reflect.Float64}, type__float)
	migrator.RegisterColumnKind(&drivers.DriverPostgres{}, []reflect.Kind{reflect.Bool}, type__bool)

	// register types
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullString{}, type__string)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullFloat64{}, type__float)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullInt64{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullInt32{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullInt16{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullBool{}, type__bool)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullByte{}, type__int)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, sql.NullTime{}, type__datetime)
	migrator.RegisterColumnType(&drivers.DriverPostgres{}, time.Time{}, type__datetime)

	migrator.RegisterAutoIncrement(&drivers.DriverPostgres{}, func(typ string) string {
		switch typ {
		case "SMALLINT":
			return "SMALLSERIAL PRIMARY KEY"
		case "INTEGER":
			return "SERIAL PRIMARY KEY"
		}
		return "BIGSERIAL PRIMARY KEY"
	})
}

func type__string(f *models.Field) string {
	return "TEXT"
}

func type__float(f *models.Field) string {
	switch f.Type.Kind() {
	case reflect.Float32:
		return "REAL"
	case reflect.Float64:
		return "DOUBLE PRECISION"
	}
	return "DOUBLE PRECISION"
}

func type__int(f *models.Field) string {
	switch f.Type.Kind() {
	case reflect.Int8:
		return "SMALLINT"
	case reflect.Int16:
		return "INTEGER"
	}
	return "BIGINT"
}

func type__bool(f *models.Field) string {
	return "BOOLEAN"
}

func type__datetime(f *models.Field) string {
	return "TIMESTAMP"
}

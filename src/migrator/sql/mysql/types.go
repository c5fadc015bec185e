package mysql

import (
	"database/sql"
	"reflect"
	"time"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/migrator"
	"github.com/Nigel2392/go-django-repositories/src/models"
)

// MYSQL TYPES
func init() {
	// register kinds
	migrator.RegisterColumnKind(&drivers.DriverMySQL{}, []reflect.Kind{reflect.String}, Type__string)
	migrator.RegisterColumnKind(&drivers.DriverMySQL{}, []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64}, Type__int)
	migrator.RegisterColumnKind(&drivers.DriverMySQL{}, []reflect.Kind{reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64}, Type__int)
	migrator.RegisterColumnKind(&drivers.DriverMySQL{}, []reflect.Kind{reflect.Float32, reflect.Float64}, Type__float)
	migrator.RegisterColumnKind(&drivers.DriverMySQL{}, []reflect.Kind{reflect.Bool}, Type__bool)

	// register types
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullString{}, Type__string)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullFloat64{}, Type__float)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullInt64{}, Type__int)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullInt32{}, Type__int)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullInt16{}, Type__int)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullBool{}, Type__bool)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullByte{}, Type__int)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, sql.NullTime{}, Type__datetime)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, time.Time{}, Type__datetime)
	migrator.RegisterColumnType(&drivers.DriverMySQL{}, []byte{}, Type__string)

	migrator.RegisterAutoIncrement(&drivers.DriverMySQL{}, func(typ string) string {
		return typ + " AUTO_INCREMENT PRIMARY KEY"
	})
}

func Type__string(f *models.Field) string {
	// TEXT columns cannot be indexed without a key length
	if f.Unique {
		return "VARCHAR(255)"
	}
	return "TEXT"
}

func Type__float(f *models.Field) string {
	switch f.Type.Kind() {
	case reflect.Float32:
		return "FLOAT"
	case reflect.Float64:
		return "DOUBLE"
	}
	return "DOUBLE"
}

func Type__int(f *models.Field) string {
	switch f.Type.Kind() {
	case reflect.Int8:
		return "SMALLINT"
	case reflect.Int16:
		return "INT"
	}
	return "BIGINT"
}

func Type__bool(f *models.Field) string {
	return "BOOLEAN"
}

func Type__datetime(f *models.Field) string {
	return "TIMESTAMP"
}

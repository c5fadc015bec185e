/*
Package migrator creates the tables of models.

Column types are looked up per driver, the sql/sqlite, sql/postgres and
sql/mysql packages register them and need to be imported for the
drivers in use:

	import _ "github.com/Nigel2392/go-django-repositories/src/migrator/sql/sqlite"

Only CREATE TABLE IF NOT EXISTS is supported, existing tables are never altered.
*/
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

type Column struct {
	Field    *models.Field
	Name     string
	Type     string
	Nullable bool
	Unique   bool
	Primary  bool
	Auto     bool
	Rel      *models.Relation
}

type Table struct {
	Meta    *models.Meta
	Columns []*Column
}

// NewModelTable describes the table of meta for the dialect d.
func NewModelTable(d *drivers.Dialect, meta *models.Meta) *Table {
	var rels = make(map[string]*models.Relation)
	for _, rel := range meta.Relations() {
		if rel.Type == models.RelManyToOne {
			rels[rel.LocalColumn] = rel
		}
	}

	var table = &Table{Meta: meta}
	for _, f := range meta.Fields() {
		var col = &Column{
			Field:    f,
			Name:     f.Name,
			Type:     GetFieldType(d.Driver, f),
			Nullable: f.Type.Kind() == reflect.Ptr || reflect.PointerTo(f.Type).Implements(scannerType),
			Unique:   f.Unique && !f.Primary,
			Primary:  f.Primary,
			Rel:      rels[f.Name],
		}
		if col.Primary {
			col.Nullable = false
			col.Auto = isInteger(f.Type) && f.Tag.Get(TagDBType) == ""
		}
		table.Columns = append(table.Columns, col)
	}
	return table
}

func (t *Table) TableName() string {
	return t.Meta.Table
}

// SQL renders the CREATE TABLE statement of the table.
func (t *Table) SQL(d *drivers.Dialect) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(d.Quote(t.TableName()))
	sb.WriteString(" (\n")

	var lines = make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		lines = append(lines, "\t"+columnSQL(d, col))
	}

	for _, col := range t.Columns {
		if col.Rel == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf(
			"\tFOREIGN KEY (%s) REFERENCES %s(%s)",
			d.Quote(col.Name),
			d.Quote(col.Rel.Target().Table),
			d.Quote(col.Rel.RemoteColumn),
		))
	}

	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n)")
	return sb.String()
}

func columnSQL(d *drivers.Dialect, col *Column) string {
	var sb strings.Builder
	sb.WriteString(d.Quote(col.Name))
	sb.WriteString(" ")

	if col.Auto {
		if auto := getAutoIncrement(d.Driver); auto != nil {
			sb.WriteString(auto(col.Type))
			return sb.String()
		}
	}

	sb.WriteString(col.Type)
	if col.Primary {
		sb.WriteString(" PRIMARY KEY")
		return sb.String()
	}
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if col.Unique {
		sb.WriteString(" UNIQUE")
	}
	return sb.String()
}

// CreateTables creates the tables of metas which do not exist yet.
//
// Referenced tables are created before the tables pointing to them.
func CreateTables(ctx context.Context, db *sqlx.DB, metas ...*models.Meta) error {
	var d, err = drivers.ForDB(db.DB)
	if err != nil {
		return err
	}

	for _, meta := range sortByDependency(metas) {
		var query = NewModelTable(d, meta).SQL(d)
		if _, err := db.ExecContext(ctx, query); err != nil {
			logger.Errorf("Failed to create table %s: %s", meta.Table, err.Error())
			return errors.Wrapf(err, "failed to create table %s", meta.Table)
		}
		logger.Debugf("Created table %s", meta.Table)
	}
	return nil
}

// sortByDependency orders metas so the targets of many-to-one
// relations come first, cycles keep their input order.
func sortByDependency(metas []*models.Meta) []*models.Meta {
	var (
		wanted  = make(map[*models.Meta]bool, len(metas))
		visited = make(map[*models.Meta]bool, len(metas))
		sorted  = make([]*models.Meta, 0, len(metas))
		visit   func(m *models.Meta)
	)
	for _, m := range metas {
		wanted[m] = true
	}

	visit = func(m *models.Meta) {
		if visited[m] {
			return
		}
		visited[m] = true
		for _, rel := range m.Relations() {
			if rel.Type == models.RelManyToOne && wanted[rel.Target()] {
				visit(rel.Target())
			}
		}
		sorted = append(sorted, m)
	}

	for _, m := range metas {
		visit(m)
	}
	return sorted
}

func isInteger(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

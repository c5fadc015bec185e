package queries

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

func newTestQuery[T any](t *testing.T, driverName string) *Query {
	t.Helper()
	var dialect, err = drivers.ByName(driverName)
	if err != nil {
		t.Fatalf("no dialect: %v", err)
	}
	return newQuery(mustMeta[T](t), dialect)
}

func expectSQL(t *testing.T, sql string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if !strings.Contains(sql, part) {
			t.Fatalf("expected SQL to contain %q\n%s", part, sql)
		}
	}
}

func expectNoSQL(t *testing.T, sql string, parts ...string) {
	t.Helper()
	for _, part := range parts {
		if strings.Contains(sql, part) {
			t.Fatalf("expected SQL not to contain %q\n%s", part, sql)
		}
	}
}

func TestBuildSelectPlain(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	if err := q.filter("title", "A"); err != nil {
		t.Fatal(err)
	}
	if err := q.orderBy("-id"); err != nil {
		t.Fatal(err)
	}

	var stmt, layout, err = q.buildSelect()
	if err != nil {
		t.Fatal(err)
	}

	var expected = `SELECT "sections"."id", "sections"."title", "sections"."status_id" FROM "sections" WHERE "sections"."title" = ? ORDER BY "sections"."id" DESC`
	if stmt.sql != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, stmt.sql)
	}
	if len(stmt.args) != 1 || stmt.args[0] != "A" {
		t.Fatalf("expected args [A], got %v", stmt.args)
	}
	if len(layout.projected) != 0 || len(layout.fetches) != 0 {
		t.Fatalf("expected no eager loads")
	}
}

func TestBuildSelectFilterOnRelation(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	if err := q.filter("subsections__status__code", "published"); err != nil {
		t.Fatal(err)
	}

	var stmt, _, err = q.buildSelect()
	if err != nil {
		t.Fatal(err)
	}

	expectSQL(t, stmt.sql,
		`SELECT DISTINCT "sections"."id"`,
		`INNER JOIN "subsections" AS "subsections_1" ON "subsections_1"."section_id" = "sections"."id"`,
		`INNER JOIN "statuses" AS "statuses_2" ON "statuses_2"."id" = "subsections_1"."status_id"`,
		`WHERE "statuses_2"."code" = ?`,
	)
}

func TestBuildSelectOptionsIdempotent(t *testing.T) {
	var once = newTestQuery[Section](t, "sqlite3")
	var twice = newTestQuery[Section](t, "sqlite3")
	for _, q := range []*Query{once, twice} {
		if err := q.join(false, "subsections"); err != nil {
			t.Fatal(err)
		}
	}
	once.eagerLoad("subsections")
	twice.eagerLoad("subsections")
	twice.eagerLoad("subsections")

	var a, _, errA = once.buildSelect()
	var b, _, errB = twice.buildSelect()
	if errA != nil || errB != nil {
		t.Fatal(errA, errB)
	}
	if a.sql != b.sql {
		t.Fatalf("expected the same statement\n%s\n%s", a.sql, b.sql)
	}
	if strings.Count(a.sql, "JOIN") != 1 {
		t.Fatalf("expected a single join\n%s", a.sql)
	}
}

func TestBuildSelectPaginatedEagerLoad(t *testing.T) {
	var q = newTestQuery[Section](t, "postgres")
	q.filter("subsections__status__code", "published")
	q.eagerLoad("subsections")
	q.orderBy("id", "-subsections__title")
	q.setLimit(2)
	q.setOffset(1)

	var stmt, layout, err = q.buildSelect()
	if err != nil {
		t.Fatal(err)
	}

	expectSQL(t, stmt.sql,
		`FROM (SELECT "sections"."id", "sections"."title", "sections"."status_id" FROM "sections" INNER JOIN`,
		`GROUP BY "sections"."id", "sections"."title", "sections"."status_id" ORDER BY "sections"."id" ASC, MAX("subsections_1"."title") DESC LIMIT $2 OFFSET $3) AS "sections"`,
		`"subsections_1"."id", "subsections_1"."title"`,
		`WHERE "statuses_2"."code" = $4 ORDER BY "sections"."id" ASC, "subsections_1"."title" DESC`,
	)
	if len(stmt.args) != 4 {
		t.Fatalf("expected 4 args, got %v", stmt.args)
	}
	if len(layout.projected) != 1 || layout.projected[0].key != "subsections" {
		t.Fatalf("expected subsections to be projected")
	}
}

func TestBuildSelectOrderedByJoin(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	q.orderBy("subsections__title")
	q.setLimit(3)

	var stmt, _, err = q.buildSelect()
	if err != nil {
		t.Fatal(err)
	}
	expectSQL(t, stmt.sql,
		`SELECT "sections"."id", "sections"."title", "sections"."status_id" FROM "sections" INNER JOIN "subsections" AS "subsections_1"`,
		`GROUP BY "sections"."id", "sections"."title", "sections"."status_id" ORDER BY MIN("subsections_1"."title") ASC LIMIT ?`,
	)
	expectNoSQL(t, stmt.sql, "DISTINCT")
}

func TestBuildSelectDependentFetch(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	q.eagerLoad("subsections__status", "status")

	var stmt, layout, err = q.buildSelect()
	if err != nil {
		t.Fatal(err)
	}
	expectNoSQL(t, stmt.sql, "JOIN")

	if len(layout.fetches) != 2 {
		t.Fatalf("expected 2 dependent fetches, got %d", len(layout.fetches))
	}
	if layout.fetches[0].relation.Name != "subsections" || len(layout.fetches[0].subpaths) != 1 || layout.fetches[0].subpaths[0] != "status" {
		t.Fatalf("expected subsections with the status subpath, got %+v", layout.fetches[0])
	}
	if layout.fetches[1].relation.Name != "status" {
		t.Fatalf("expected status as second fetch, got %s", layout.fetches[1].relation.Name)
	}
}

func TestBuildSelectLimitAndHints(t *testing.T) {
	var mysql = newTestQuery[Section](t, "mysql")
	mysql.setOffset(5)
	mysql.hints = Hints{ForUpdate: true}

	var stmt, _, err = mysql.buildSelect()
	if err != nil {
		t.Fatal(err)
	}
	expectSQL(t, stmt.sql, "SELECT `sections`.`id`", " LIMIT 18446744073709551615 OFFSET ?", " FOR UPDATE")

	var sqlite = newTestQuery[Section](t, "sqlite3")
	sqlite.setOffset(5)
	sqlite.hints = Hints{ForUpdate: true, Timeout: time.Second}
	stmt, _, err = sqlite.buildSelect()
	if err != nil {
		t.Fatal(err)
	}
	expectSQL(t, stmt.sql, " LIMIT -1 OFFSET ?")
	expectNoSQL(t, stmt.sql, "FOR UPDATE")
}

func TestBuildCount(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	q.filter("subsections__title__startswith", "1.")
	q.orderBy("title")
	q.setLimit(1)

	var stmt, err = q.buildCount()
	if err != nil {
		t.Fatal(err)
	}
	expectSQL(t, stmt.sql, `SELECT COUNT(DISTINCT "sections"."id") FROM "sections" INNER JOIN "subsections"`)
	expectNoSQL(t, stmt.sql, "ORDER BY", "LIMIT")
	if len(stmt.args) != 1 || stmt.args[0] != "1.%" {
		t.Fatalf("expected args [1.%%], got %v", stmt.args)
	}
}

func TestBuildUpdate(t *testing.T) {
	var q = newTestQuery[Section](t, "postgres")
	q.filter("title", "X")
	q.returning(true)

	var stmt, returning, err = q.buildUpdate(map[string]any{"status_id": 3, "title": "Y"})
	if err != nil {
		t.Fatal(err)
	}
	var expected = `UPDATE "sections" SET "status_id" = $1, "title" = $2 WHERE "id" IN (SELECT DISTINCT "sections"."id" FROM "sections" WHERE "sections"."title" = $3) RETURNING "id", "title", "status_id"`
	if stmt.sql != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, stmt.sql)
	}
	if len(returning) != 3 {
		t.Fatalf("expected 3 returning fields, got %d", len(returning))
	}

	if _, _, err := q.buildUpdate(nil); !errors.Is(err, query_errors.ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
	if _, _, err := q.buildUpdate(map[string]any{"nope": 1}); !errors.Is(err, query_errors.ErrInvalidFilteringField) {
		t.Fatalf("expected an invalid field, got %v", err)
	}
}

func TestBuildDeleteMySQL(t *testing.T) {
	var q = newTestQuery[Section](t, "mysql")
	q.filter("status__code", "draft")

	var stmt, _, err = q.buildDelete()
	if err != nil {
		t.Fatal(err)
	}
	expectSQL(t, stmt.sql,
		"DELETE FROM `sections` WHERE `id` IN (SELECT `id` FROM (SELECT DISTINCT `sections`.`id` FROM `sections` INNER JOIN `statuses` AS `statuses_1`",
		") AS `candidates`)",
	)

	q.returning(false, "id")
	if _, _, err := q.buildDelete(); !errors.Is(err, query_errors.ErrReturningDriver) {
		t.Fatalf("expected ErrReturningDriver, got %v", err)
	}
}

func TestQueryValidation(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")

	if err := q.setLimit(0); !errors.Is(err, query_errors.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if err := q.setOffset(-1); !errors.Is(err, query_errors.ErrInvalidOffset) {
		t.Fatalf("expected ErrInvalidOffset, got %v", err)
	}
	if err := q.returning(true, "id"); !errors.Is(err, query_errors.ErrConflictingReturning) {
		t.Fatalf("expected ErrConflictingReturning, got %v", err)
	}
	if err := q.filter("title__in", []string{}); !errors.Is(err, query_errors.ErrLookupArgs) {
		t.Fatalf("expected ErrLookupArgs, got %v", err)
	}
	if err := q.valuesList("title", "nope"); !errors.Is(err, query_errors.ErrInvalidFilteringField) {
		t.Fatalf("expected an invalid field, got %v", err)
	}
}

func TestQueryDuplicateKeys(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	q.filter("title", "A")
	q.filter("status_id", 1)
	q.filter("title", "B")
	q.orderBy("title", "-id", "title")

	var stmt, _, err = q.buildSelect()
	if err != nil {
		t.Fatal(err)
	}
	expectSQL(t, stmt.sql,
		`WHERE "sections"."title" = ? AND "sections"."status_id" = ?`,
		`ORDER BY "sections"."title" ASC, "sections"."id" DESC`,
	)
	if stmt.args[0] != "B" {
		t.Fatalf("expected the last filter value to win, got %v", stmt.args)
	}
}

func TestQueryClone(t *testing.T) {
	var q = newTestQuery[Section](t, "sqlite3")
	q.filter("title", "A")

	var c = q.clone()
	c.filter("subsections__title", "1.1")
	c.orderBy("-id")
	c.eagerLoad("status")

	if q.where.Len() != 1 || q.order.Len() != 0 || q.options.len() != 0 || q.joins.len() != 0 {
		t.Fatalf("expected the original query to be unchanged")
	}
	if c.where.Len() != 2 || c.joins.len() != 1 {
		t.Fatalf("expected the clone to hold the new state")
	}
}

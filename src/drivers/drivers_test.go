package drivers_test

import (
	"errors"
	"testing"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/jmoiron/sqlx"
)

func TestByName(t *testing.T) {
	var tests = []struct {
		name     string
		expected string
	}{
		{"sqlite3", "sqlite3"},
		{"mysql", "mysql"},
		{"postgres", "postgres"},
		{"pgx", "postgres"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var d, err = drivers.ByName(test.name)
			if err != nil {
				t.Fatalf("ByName(%q): %v", test.name, err)
			}
			if d.Name != test.expected {
				t.Fatalf("expected dialect %q, got %q", test.expected, d.Name)
			}
		})
	}

	if _, err := drivers.ByName("oracle"); !errors.Is(err, query_errors.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestForDB(t *testing.T) {
	if _, err := drivers.ForDB(nil); !errors.Is(err, query_errors.ErrNoDatabase) {
		t.Fatalf("expected ErrNoDatabase, got %v", err)
	}

	var db, err = sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	d, err := drivers.ForDB(db.DB)
	if err != nil {
		t.Fatalf("ForDB: %v", err)
	}
	if d.Name != "sqlite3" || drivers.SupportsReturning(db.DB) != drivers.SupportsReturningColumns {
		t.Fatalf("expected the sqlite3 dialect, got %q", d.Name)
	}
}

func TestDialectRendering(t *testing.T) {
	var sqlite, _ = drivers.ByName("sqlite3")
	var mysql, _ = drivers.ByName("mysql")
	var postgres, _ = drivers.ByName("postgres")

	if got := sqlite.Column("users", "id"); got != `"users"."id"` {
		t.Fatalf("unexpected sqlite column %s", got)
	}
	if got := mysql.Column("users", "id"); got != "`users`.`id`" {
		t.Fatalf("unexpected mysql column %s", got)
	}
	if got := postgres.Column("", "id"); got != `"id"` {
		t.Fatalf("unexpected unqualified column %s", got)
	}

	var query = "SELECT * FROM t WHERE a = ? AND b IN (" + drivers.Placeholders(2) + ")"
	if got := postgres.Rebind(query); got != "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)" {
		t.Fatalf("unexpected postgres rebind %s", got)
	}
	if got := mysql.Rebind(query); got != query {
		t.Fatalf("expected mysql to keep question marks, got %s", got)
	}
	if drivers.Placeholders(0) != "" {
		t.Fatalf("expected no placeholders for 0")
	}
}

package queries

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"testing"

	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	createTableStatuses = `CREATE TABLE statuses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL
)`
	createTableSections = `CREATE TABLE sections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	status_id INTEGER REFERENCES statuses(id)
)`
	createTableSubsections = `CREATE TABLE subsections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	section_id INTEGER REFERENCES sections(id),
	status_id INTEGER REFERENCES statuses(id)
)`
	createTableUserTypes = `CREATE TABLE user_types (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
)`
	createTableUsers = `CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name TEXT NOT NULL,
	email TEXT UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	type_id INTEGER REFERENCES user_types(id),
	created_by_id INTEGER
)`
	createTableDocuments = `CREATE TABLE documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	user_id INTEGER REFERENCES users(id)
)`
)

type Status struct {
	ID   int64  `db:"id,pk"`
	Code string `db:"code"`
}

func (s *Status) TableName() string {
	return "statuses"
}

type Section struct {
	ID          int64         `db:"id,pk"`
	Title       string        `db:"title"`
	StatusID    int64         `db:"status_id"`
	Status      *Status       `rel:"status,fk=status_id"`
	Subsections []*Subsection `rel:"subsections,reverse=section_id"`
}

type Subsection struct {
	ID        int64    `db:"id,pk"`
	Title     string   `db:"title"`
	SectionID int64    `db:"section_id"`
	StatusID  int64    `db:"status_id"`
	Section   *Section `rel:"section,fk=section_id"`
	Status    *Status  `rel:"status,fk=status_id"`
}

type UserType struct {
	ID   int64  `db:"id,pk"`
	Name string `db:"name"`
}

type User struct {
	ID          int64       `db:"id,pk"`
	FirstName   string      `db:"first_name"`
	Email       *string     `db:"email,unique"`
	IsActive    bool        `db:"is_active"`
	TypeID      *int64      `db:"type_id"`
	CreatedByID *int64      `db:"created_by_id"`
	Type        *UserType   `rel:"type,fk=type_id"`
	Documents   []*Document `rel:"documents,reverse=user_id"`
}

type Document struct {
	ID     int64  `db:"id,pk"`
	Title  string `db:"title"`
	UserID int64  `db:"user_id"`
	User   *User  `rel:"user,fk=user_id"`
}

type Note struct {
	ID         int64   `db:"id,pk"`
	Body       string  `db:"body"`
	StatusCode string  `db:"status_code"`
	Status     *Status `rel:"status,fk=status_code,to=code"`
}

func init() {
	var output io.Writer = io.Discard
	if os.Getenv("QUERIES_TEST_LOG") != "" {
		output = os.Stdout
	}
	logger.Setup(&logger.Logger{
		Level:       logger.DBG,
		OutputDebug: output,
		OutputInfo:  output,
		OutputWarn:  output,
		OutputError: output,
	})
}

var dbCounter atomic.Int64

// newTestDB opens an empty in-memory database with the test schema.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	var dsn = fmt.Sprintf("file:queries_test_%d?mode=memory&cache=shared", dbCounter.Add(1))
	var db, err = sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range []string{
		createTableStatuses,
		createTableSections,
		createTableSubsections,
		createTableUserTypes,
		createTableUsers,
		createTableDocuments,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create table: %v\n%s", err, stmt)
		}
	}
	return db
}

func mustExec(t *testing.T, db *sqlx.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("failed to execute %q: %v", query, err)
	}
}

func newTestSession(t *testing.T, db *sqlx.DB) *Session {
	t.Helper()
	var s, err = NewSession(db)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedSections creates three statuses and four sections with
// subsections of mixed status.
//
//	section 1 "A" published: 1.1 published, 1.2 draft, 1.3 published
//	section 2 "B" draft:     2.1 published
//	section 3 "C" published: 3.1 draft
//	section 4 "D" draft:     4.1 published, 4.2 published
func seedSections(t *testing.T, db *sqlx.DB) {
	t.Helper()
	mustExec(t, db, `INSERT INTO statuses (id, code) VALUES (1, 'published'), (2, 'draft'), (3, 'archived')`)
	mustExec(t, db, `INSERT INTO sections (id, title, status_id) VALUES (1, 'A', 1), (2, 'B', 2), (3, 'C', 1), (4, 'D', 2)`)
	mustExec(t, db, `INSERT INTO subsections (id, title, section_id, status_id) VALUES
		(1, '1.1', 1, 1), (2, '1.2', 1, 2), (3, '1.3', 1, 1),
		(4, '2.1', 2, 1),
		(5, '3.1', 3, 2),
		(6, '4.1', 4, 1), (7, '4.2', 4, 1)`)
}

// seedUsers creates four users, Petr has no type and no documents.
func seedUsers(t *testing.T, db *sqlx.DB) {
	t.Helper()
	mustExec(t, db, `INSERT INTO user_types (id, name) VALUES (1, 'admin'), (2, 'editor')`)
	mustExec(t, db, `INSERT INTO users (id, first_name, email, is_active, type_id, created_by_id) VALUES
		(1, 'Ivan', 'ivan@example.com', 1, 1, NULL),
		(2, 'Petr', NULL, 1, NULL, 1),
		(3, 'ivan', 'small.ivan@example.com', 0, 2, 1),
		(4, 'Anna', 'anna@example.com', 1, 2, 2)`)
	mustExec(t, db, `INSERT INTO documents (id, title, user_id) VALUES
		(1, 'passport', 1), (2, 'visa', 1), (3, 'contract', 3), (4, 'invoice', 4)`)
}

func ids[T any](t *testing.T, list []*T, pk func(*T) int64) []int64 {
	t.Helper()
	var out = make([]int64, len(list))
	for i, obj := range list {
		out[i] = pk(obj)
	}
	return out
}

var ctx = context.Background()

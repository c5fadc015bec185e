package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/Nigel2392/go-django-repositories/internal/api"
	"github.com/Nigel2392/go-django-repositories/internal/app/apptest"
	"github.com/Nigel2392/go-django-repositories/internal/app/models"
	"github.com/Nigel2392/go-django-repositories/internal/app/repositories"
	"github.com/Nigel2392/go-django-repositories/internal/config"
	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func init() {
	gin.SetMode(gin.TestMode)

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

func newServer(t *testing.T) (http.Handler, *sqlx.DB) {
	t.Helper()
	var db = apptest.NewDB(t)
	return api.NewHandler(db, config.DefaultConfig().HTTP), db
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	var req = httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	var rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func responseIDs(users []api.UserResponse) []int64 {
	var ids = make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func TestUserListRoutes(t *testing.T) {
	var h, _ = newServer(t)

	var tests = []struct {
		target   string
		expected []int64
	}{
		{"/ordering", []int64{3, 4, 1, 2}},
		{"/icontains", []int64{1, 3}},
		{"/icontains?code=AD", []int64{2}},
		{"/select-related", []int64{1, 3}},
		{"/order-by", []int64{2, 1, 3}},
		{"/active-only", []int64{1, 2, 4}},
		{"/created-by", []int64{2, 3}},
		{"/created-by?user_id=2", []int64{4}},
	}

	for _, test := range tests {
		t.Run(test.target, func(t *testing.T) {
			var rec = do(t, h, http.MethodGet, test.target, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var got = responseIDs(decode[[]api.UserResponse](t, rec))
			if !slices.Equal(got, test.expected) {
				t.Fatalf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestUserTypesAreLoaded(t *testing.T) {
	var h, _ = newServer(t)

	var users = decode[[]api.UserResponse](t, do(t, h, http.MethodGet, "/active-only", ""))
	if users[0].Type == nil || users[0].Type.Code != "sh" || users[0].Type.Description != "Shop" {
		t.Fatalf("expected Ivan to be a shop user, got %+v", users[0].Type)
	}
	if users[2].Type != nil {
		t.Fatalf("expected Maria to have no type, got %+v", users[2].Type)
	}
}

func TestFirst(t *testing.T) {
	var h, _ = newServer(t)

	var rec = do(t, h, http.MethodGet, "/first", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user = decode[models.User](t, rec)
	if user.ID != 1 || user.Type == nil || user.Type.Status == nil || user.Type.Status.Name != "enabled" {
		t.Fatalf("expected Ivan with the type status, got %+v", user)
	}
	if len(user.Type.ChangeLogs) != 2 || len(user.Documents) != 2 {
		t.Fatalf("expected 2 change logs and 2 documents, got %d and %d", len(user.Type.ChangeLogs), len(user.Documents))
	}
}

func TestCreatedByInvalid(t *testing.T) {
	var h, _ = newServer(t)
	if rec := do(t, h, http.MethodGet, "/created-by?user_id=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateUser(t *testing.T) {
	var h, db = newServer(t)

	var rec = do(t, h, http.MethodPost, "/user", `{"first_name": "Petr", "last_name": "Sokolov"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var user = decode[api.UserResponse](t, rec)
	if user.ID != 5 || user.FirstName != "Petr" || user.Type != nil {
		t.Fatalf("unexpected user %+v", user)
	}

	// the session of the request was committed
	var s = apptest.NewSession(t, db)
	var repo, _ = repositories.NewUsersRepository(s)
	stored, err := repo.GetByPK(context.Background(), 5)
	if err != nil || stored == nil || stored.LastName != "Sokolov" || !stored.IsActive {
		t.Fatalf("expected the user to be stored, got %+v %v", stored, err)
	}

	if rec := do(t, h, http.MethodPost, "/user", `{"first_name": "Petr"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a last name, got %d", rec.Code)
	}
}

func TestPublishSections(t *testing.T) {
	var h, db = newServer(t)

	var rec = do(t, h, http.MethodPost, "/sections/publish", `{"name": "Configuration"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp = decode[api.PublishSectionsResponse](t, rec)
	if resp.Updated != 1 || len(resp.Sections) != 1 || resp.Sections[0].ID != 2 || resp.Sections[0].StatusID != 1 {
		t.Fatalf("expected section 2 to be published, got %+v", resp)
	}

	var s = apptest.NewSession(t, db)
	var repo, _ = repositories.NewSectionRepository(s)
	n, err := repo.Published().Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("expected 3 published sections, got %d %v", n, err)
	}

	resp = decode[api.PublishSectionsResponse](t, do(t, h, http.MethodPost, "/sections/publish", `{"name": "Missing"}`))
	if resp.Updated != 0 || len(resp.Sections) != 0 {
		t.Fatalf("expected nothing to be updated, got %+v", resp)
	}
}

func TestRequestID(t *testing.T) {
	var h, _ = newServer(t)

	var rec = do(t, h, http.MethodGet, "/health", "")
	if rec.Header().Get(api.HeaderRequestID) == "" {
		t.Fatalf("expected a generated request id")
	}

	var req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(api.HeaderRequestID, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(api.HeaderRequestID) != "abc" {
		t.Fatalf("expected the incoming request id to be kept, got %q", rec.Header().Get(api.HeaderRequestID))
	}
}

func TestCORSPreflight(t *testing.T) {
	var h, _ = newServer(t)

	var req = httptest.NewRequest(http.MethodOptions, "/user", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	var rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected any origin to be allowed, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

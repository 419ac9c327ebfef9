package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasklists/internal/services"
	"github.com/adanyl0v/go-tasklists/internal/storage/sqlite"
)

const (
	testIssuer     = "go-tasklists-test"
	testSigningKey = "test-signing-key"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "http.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	h := New(
		logger,
		services.NewListService(logger, store),
		services.NewTaskService(logger, store),
		services.NewBootstrapService(logger, store),
		testIssuer,
		testSigningKey,
	)

	router := gin.New()
	router.Use(h.HandleRequestIDMiddleware)
	router.Use(h.HandleRequestLogMiddleware)
	RegisterRoutes(router, h)
	return router
}

func signToken(t *testing.T, subject, issuer, key string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func tokenFor(t *testing.T, userID string) string {
	return signToken(t, userID, testIssuer, testSigningKey, time.Now().Add(time.Hour))
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	err := json.Unmarshal(w.Body.Bytes(), &v)
	if err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}

func createList(t *testing.T, router http.Handler, token, name string) getListResponse {
	t.Helper()

	w := do(router, http.MethodPost, "/api/v1/lists", token, `{"name":"`+name+`"}`)
	expectStatus(t, w, http.StatusCreated)
	return decode[getListResponse](t, w)
}

func createTask(t *testing.T, router http.Handler, token string, listID int64, title string) getTaskResponse {
	t.Helper()

	body := `{"list_id":` + strconv.FormatInt(listID, 10) + `,"title":"` + title + `"}`
	w := do(router, http.MethodPost, "/api/v1/tasks", token, body)
	expectStatus(t, w, http.StatusCreated)
	return decode[getTaskResponse](t, w)
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage", header: "Bearer not-a-token"},
		{name: "wrong key", header: "Bearer " + signToken(t, "u", testIssuer, "other-key", time.Now().Add(time.Hour))},
		{name: "wrong issuer", header: "Bearer " + signToken(t, "u", "someone-else", testSigningKey, time.Now().Add(time.Hour))},
		{name: "expired", header: "Bearer " + signToken(t, "u", testIssuer, testSigningKey, time.Now().Add(-time.Hour))},
		{name: "no subject", header: "Bearer " + signToken(t, "", testIssuer, testSigningKey, time.Now().Add(time.Hour))},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want %d", tt.name, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/lists", tokenFor(t, "user-1"), "")
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lists", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "user-1"))
	req.Header.Set(requestIDHeader, "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("request id = %q, want req-42", got)
	}
}

func TestListLifecycle(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := tokenFor(t, "user-1")

	a := createList(t, router, token, "Inbox")
	b := createList(t, router, token, "Work")
	if a.Position != 0 || b.Position != 1 {
		t.Fatalf("positions = %d, %d, want 0, 1", a.Position, b.Position)
	}
	if a.Slug != "inbox" {
		t.Fatalf("slug = %q, want inbox", a.Slug)
	}

	body := `{"order":[` + strconv.FormatInt(b.ID, 10) + `,` + strconv.FormatInt(a.ID, 10) + `]}`
	w := do(router, http.MethodPut, "/api/v1/lists/order", token, body)
	expectStatus(t, w, http.StatusNoContent)

	w = do(router, http.MethodGet, "/api/v1/lists", token, "")
	expectStatus(t, w, http.StatusOK)
	lists := decode[[]getListResponse](t, w)
	if len(lists) != 2 || lists[0].ID != b.ID || lists[1].ID != a.ID {
		t.Fatalf("lists = %+v, want Work then Inbox", lists)
	}

	w = do(router, http.MethodPatch, "/api/v1/lists/"+strconv.FormatInt(a.ID, 10), token, `{"name":"Home","slug":"Home Stuff"}`)
	expectStatus(t, w, http.StatusOK)
	renamed := decode[getListResponse](t, w)
	if renamed.Name != "Home" || renamed.Slug != "home-stuff" || renamed.Position != 1 {
		t.Fatalf("renamed = %+v", renamed)
	}

	w = do(router, http.MethodDelete, "/api/v1/lists/"+strconv.FormatInt(a.ID, 10), token, "")
	expectStatus(t, w, http.StatusNoContent)

	w = do(router, http.MethodGet, "/api/v1/lists/"+strconv.FormatInt(a.ID, 10), token, "")
	expectStatus(t, w, http.StatusNotFound)
}

func TestListErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	owner := tokenFor(t, "user-1")
	stranger := tokenFor(t, "user-2")
	list := createList(t, router, owner, "Private")
	path := "/api/v1/lists/" + strconv.FormatInt(list.ID, 10)

	expectStatus(t, do(router, http.MethodGet, path, stranger, ""), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodDelete, path, stranger, ""), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/lists/abc", owner, ""), http.StatusBadRequest)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/lists/0", owner, ""), http.StatusBadRequest)
	expectStatus(t, do(router, http.MethodPost, "/api/v1/lists", owner, `{"name":""}`), http.StatusBadRequest)
	expectStatus(t, do(router, http.MethodPost, "/api/v1/lists", owner, `{`), http.StatusBadRequest)
	expectStatus(t, do(router, http.MethodPut, "/api/v1/lists/order", owner, `{"order":[1,1]}`), http.StatusBadRequest)

	w := do(router, http.MethodPut, "/api/v1/lists/order", stranger, `{"order":[`+strconv.FormatInt(list.ID, 10)+`]}`)
	expectStatus(t, w, http.StatusBadRequest)
	body := decode[struct {
		Error      string  `json:"error"`
		MissingIDs []int64 `json:"missing_ids"`
	}](t, w)
	if len(body.MissingIDs) != 1 || body.MissingIDs[0] != list.ID {
		t.Fatalf("missing ids = %v, want [%d]", body.MissingIDs, list.ID)
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	token := tokenFor(t, "user-1")
	list := createList(t, router, token, "L")
	other := createList(t, router, token, "Other")

	t1 := createTask(t, router, token, list.ID, "t1")
	t2 := createTask(t, router, token, list.ID, "t2")
	t3 := createTask(t, router, token, list.ID, "t3")
	if t1.Position != 0 || t2.Position != 1 || t3.Position != 2 {
		t.Fatalf("positions = %d, %d, %d", t1.Position, t2.Position, t3.Position)
	}

	order := `{"list_id":` + strconv.FormatInt(list.ID, 10) + `,"order":[` +
		strconv.FormatInt(t3.ID, 10) + `,` + strconv.FormatInt(t1.ID, 10) + `,` + strconv.FormatInt(t2.ID, 10) + `]}`
	expectStatus(t, do(router, http.MethodPut, "/api/v1/tasks/order", token, order), http.StatusNoContent)

	w := do(router, http.MethodGet, "/api/v1/lists/"+strconv.FormatInt(list.ID, 10)+"/tasks", token, "")
	expectStatus(t, w, http.StatusOK)
	tasks := decode[[]getTaskResponse](t, w)
	want := []int64{t3.ID, t1.ID, t2.ID}
	if len(tasks) != len(want) {
		t.Fatalf("tasks = %+v", tasks)
	}
	for i, task := range tasks {
		if task.ID != want[i] || task.Position != i {
			t.Fatalf("tasks[%d] = id %d pos %d, want id %d pos %d", i, task.ID, task.Position, want[i], i)
		}
	}

	taskPath := "/api/v1/tasks/" + strconv.FormatInt(t1.ID, 10)
	w = do(router, http.MethodPatch, taskPath, token, `{"description":"notes","completed":true}`)
	expectStatus(t, w, http.StatusOK)
	patched := decode[getTaskResponse](t, w)
	if patched.Description == nil || *patched.Description != "notes" || !patched.Completed || patched.Title != "t1" {
		t.Fatalf("patched = %+v", patched)
	}

	w = do(router, http.MethodPatch, taskPath, token, `{"description":null}`)
	expectStatus(t, w, http.StatusOK)
	if cleared := decode[getTaskResponse](t, w); cleared.Description != nil || !cleared.Completed {
		t.Fatalf("cleared = %+v", cleared)
	}

	expectStatus(t, do(router, http.MethodPatch, taskPath, token, `{"title":null}`), http.StatusBadRequest)

	w = do(router, http.MethodDelete, "/api/v1/lists/"+strconv.FormatInt(list.ID, 10)+"/tasks/completed", token, "")
	expectStatus(t, w, http.StatusOK)
	if got := decode[deleteCompletedTasksResponse](t, w); got.DeletedCount != 1 {
		t.Fatalf("deleted_count = %d, want 1", got.DeletedCount)
	}
	expectStatus(t, do(router, http.MethodGet, taskPath, token, ""), http.StatusNotFound)

	w = do(router, http.MethodPatch, "/api/v1/tasks/"+strconv.FormatInt(t2.ID, 10), token, `{"list_id":`+strconv.FormatInt(other.ID, 10)+`}`)
	expectStatus(t, w, http.StatusOK)
	if moved := decode[getTaskResponse](t, w); moved.ListID != other.ID || moved.Position != 2 {
		t.Fatalf("moved = %+v", moved)
	}

	expectStatus(t, do(router, http.MethodDelete, "/api/v1/tasks/"+strconv.FormatInt(t3.ID, 10), token, ""), http.StatusNoContent)

	w = do(router, http.MethodGet, "/api/v1/bootstrap", token, "")
	expectStatus(t, w, http.StatusOK)
	snapshot := decode[getBootstrapResponse](t, w)
	if len(snapshot.Lists) != 2 || len(snapshot.Tasks) != 1 || snapshot.Tasks[0].ID != t2.ID {
		t.Fatalf("snapshot = %+v", snapshot)
	}
}

func TestTaskErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	owner := tokenFor(t, "user-1")
	stranger := tokenFor(t, "user-2")
	list := createList(t, router, owner, "L")
	task := createTask(t, router, owner, list.ID, "t")
	taskPath := "/api/v1/tasks/" + strconv.FormatInt(task.ID, 10)

	expectStatus(t, do(router, http.MethodGet, taskPath, stranger, ""), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodPatch, taskPath, stranger, `{"title":"x"}`), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodDelete, taskPath, stranger, ""), http.StatusNotFound)

	body := `{"list_id":` + strconv.FormatInt(list.ID, 10) + `,"title":"sneaky"}`
	expectStatus(t, do(router, http.MethodPost, "/api/v1/tasks", stranger, body), http.StatusNotFound)
	expectStatus(t, do(router, http.MethodPost, "/api/v1/tasks", owner, `{"title":"no list"}`), http.StatusBadRequest)
	expectStatus(t, do(router, http.MethodGet, "/api/v1/lists/"+strconv.FormatInt(list.ID, 10)+"/tasks", stranger, ""), http.StatusNotFound)

	strangerList := createList(t, router, stranger, "Mine")
	order := `{"list_id":` + strconv.FormatInt(strangerList.ID, 10) + `,"order":[` + strconv.FormatInt(task.ID, 10) + `]}`
	w := do(router, http.MethodPut, "/api/v1/tasks/order", stranger, order)
	expectStatus(t, w, http.StatusBadRequest)

	w = do(router, http.MethodGet, taskPath, owner, "")
	expectStatus(t, w, http.StatusOK)
	if got := decode[getTaskResponse](t, w); got.ListID != list.ID || got.Position != 0 {
		t.Fatalf("task moved by stranger: %+v", got)
	}
}

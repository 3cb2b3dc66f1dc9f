package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"logbook/config"
	"logbook/internal/messaging/producer"
	"logbook/internal/models"
	core "logbook/logservice/core"
	"logbook/storage/store"
)

const (
	devOrigin  = "http://localhost:3004"
	prodOrigin = "https://baby-logger-1-435402.uk.r.appspot.com"
)

type failingStore struct{}

var errDown = errors.New("dial tcp: connection refused")

func (failingStore) InsertEntry(context.Context, *models.LogEntry) (*models.LogEntry, error) {
	return nil, errDown
}
func (failingStore) ListEntries(context.Context, bool) ([]models.LogEntry, error) {
	return nil, errDown
}
func (failingStore) DeleteEntry(context.Context, string) (*models.LogEntry, error) {
	return nil, errDown
}
func (failingStore) ArchiveEntry(context.Context, string) (*models.LogEntry, error) {
	return nil, errDown
}
func (failingStore) Ping(context.Context) error { return errDown }
func (failingStore) Close()                     {}

func newTestRouter(t *testing.T, s store.Store, staticDir string) http.Handler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	svc := core.NewService(s, producer.NopProducer{}, logger, config.BatchProcessorConfig{})
	t.Cleanup(svc.Close)

	h := NewLogHandler(svc, logger, 1024)
	return NewRouter(h, RouterOptions{
		AllowedOrigins: []string{devOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		StaticDir:      staticDir,
		HealthPath:     "/health",
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
}

func TestLogLifecycleScenario(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")

	// Create
	w := do(t, h, http.MethodPost, "/api/logs", `{"text":"fed baby"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create: status %d, body %s", w.Code, w.Body.String())
	}
	var created models.LogEntry
	decode(t, w, &created)
	if created.ID == "" || created.Text != "fed baby" || created.Archived {
		t.Fatalf("created = %+v", created)
	}
	if created.Timestamp.IsZero() {
		t.Error("timestamp should be defaulted")
	}

	// Archive
	w = do(t, h, http.MethodPut, "/api/logs/archive/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("archive: status %d", w.Code)
	}
	var archiveResp struct {
		Message     string          `json:"message"`
		ArchivedLog models.LogEntry `json:"archivedLog"`
	}
	decode(t, w, &archiveResp)
	if archiveResp.Message != "Log archived" || !archiveResp.ArchivedLog.Archived || archiveResp.ArchivedLog.ID != created.ID {
		t.Fatalf("archive response = %+v", archiveResp)
	}

	// Lists
	var archived, active []models.LogEntry
	decode(t, do(t, h, http.MethodGet, "/api/logs/archived", ""), &archived)
	decode(t, do(t, h, http.MethodGet, "/api/logs", ""), &active)
	if len(archived) != 1 || archived[0].ID != created.ID {
		t.Errorf("archived list = %+v", archived)
	}
	if len(active) != 0 {
		t.Errorf("active list = %+v", active)
	}

	// Delete
	w = do(t, h, http.MethodDelete, "/api/logs/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}
	var deleteResp struct {
		Message    string          `json:"message"`
		DeletedLog models.LogEntry `json:"deletedLog"`
	}
	decode(t, w, &deleteResp)
	if deleteResp.Message != "Log deleted" || deleteResp.DeletedLog.ID != created.ID {
		t.Fatalf("delete response = %+v", deleteResp)
	}

	// Delete again
	w = do(t, h, http.MethodDelete, "/api/logs/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", w.Code)
	}
	var notFound map[string]string
	decode(t, w, &notFound)
	if notFound["message"] != "Log not found" {
		t.Errorf("404 body = %v", notFound)
	}
}

func TestCreateLog_ValidationErrors(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")

	for name, body := range map[string]string{
		"missing text": `{}`,
		"empty text":   `{"text":""}`,
		"bad json":     `{"text":`,
		"bad archived": `{"text":"x","archived":"maybe"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/logs", body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status %d, body %s", w.Code, w.Body.String())
			}
			var resp map[string]string
			decode(t, w, &resp)
			if !strings.HasPrefix(resp["error"], "Log validation failed") {
				t.Errorf("error = %q", resp["error"])
			}
		})
	}

	var active []models.LogEntry
	decode(t, do(t, h, http.MethodGet, "/api/logs", ""), &active)
	if len(active) != 0 {
		t.Errorf("invalid creates wrote %d entries", len(active))
	}
}

func TestCreateLog_NonJSONContentTypeIsEmptyBody(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")
	req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestCreateLog_BodyTooLarge(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")
	body := `{"text":"` + strings.Repeat("x", 2048) + `"}`
	w := do(t, h, http.MethodPost, "/api/logs", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d", w.Code)
	}
}

func TestListActive_EmptyIsArray(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")
	w := do(t, h, http.MethodGet, "/api/logs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestUnknownIDs(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")
	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/logs/6f1c2e0a-9d7b-4c1e-8a55-0a0b0c0d0e0f"},
		{http.MethodPut, "/api/logs/archive/6f1c2e0a-9d7b-4c1e-8a55-0a0b0c0d0e0f"},
		{http.MethodDelete, "/api/logs/not-an-id"},
	} {
		w := do(t, h, tc.method, tc.path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: status %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestStoreFailuresAreGeneric(t *testing.T) {
	h := newTestRouter(t, failingStore{}, "")

	cases := []struct {
		method, path, body string
		key, want          string
	}{
		{http.MethodPost, "/api/logs", `{"text":"x"}`, "error", "Failed to save log"},
		{http.MethodGet, "/api/logs", "", "error", "Failed to fetch logs"},
		{http.MethodGet, "/api/logs/archived", "", "error", "Failed to fetch logs"},
		{http.MethodDelete, "/api/logs/abc", "", "message", "Server error"},
		{http.MethodPut, "/api/logs/archive/abc", "", "message", "Server error"},
	}
	for _, tc := range cases {
		w := do(t, h, tc.method, tc.path, tc.body)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: status %d", tc.method, tc.path, w.Code)
			continue
		}
		if strings.Contains(w.Body.String(), "connection refused") {
			t.Errorf("%s %s: internal detail leaked: %s", tc.method, tc.path, w.Body.String())
		}
		var resp map[string]string
		decode(t, w, &resp)
		if resp[tc.key] != tc.want {
			t.Errorf("%s %s: %s = %q, want %q", tc.method, tc.path, tc.key, resp[tc.key], tc.want)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")
	w := do(t, h, http.MethodPatch, "/api/logs", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set("Origin", devOrigin)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != devOrigin {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.Header.Set("Origin", prodOrigin)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("origin outside this environment should not be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/logs/archive/abc", nil)
	req.Header.Set("Origin", devOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET,POST,PUT,DELETE" {
		t.Errorf("allow methods = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
		t.Errorf("allow headers = %q", got)
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>logbook</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newTestRouter(t, store.NewMemoryStore(), dir)

	w := do(t, h, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "logbook") {
		t.Fatalf("index: status %d body %q", w.Code, w.Body.String())
	}

	// No catch-all: unknown client routes are not rewritten to index.html
	if w := do(t, h, http.MethodGet, "/history", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown path: status %d", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	ok := newTestRouter(t, store.NewMemoryStore(), "")
	if w := do(t, ok, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("healthy store: status %d", w.Code)
	}

	down := newTestRouter(t, failingStore{}, "")
	w := do(t, down, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("failing store: status %d", w.Code)
	}
	var resp map[string]interface{}
	decode(t, w, &resp)
	if resp["status"] != "degraded" {
		t.Errorf("status = %v", resp["status"])
	}
}

func TestCreateLog_OutOfRangeTimestampKeepsListReadable(t *testing.T) {
	h := newTestRouter(t, store.NewMemoryStore(), "")

	for _, body := range []string{
		`{"text":"fed baby","timestamp":1e15}`,
		`{"text":"fed baby","timestamp":-1e15}`,
		`{"text":"fed baby","timestamp":1e300}`,
	} {
		w := do(t, h, http.MethodPost, "/api/logs", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, body %q", body, w.Code, w.Body.String())
		}
		var resp map[string]string
		decode(t, w, &resp)
		if !strings.HasPrefix(resp["error"], "Log validation failed") {
			t.Errorf("%s: error = %q", body, resp["error"])
		}
	}

	if w := do(t, h, http.MethodPost, "/api/logs", `{"text":"nap"}`); w.Code != http.StatusOK {
		t.Fatalf("create: status %d", w.Code)
	}

	w := do(t, h, http.MethodGet, "/api/logs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var active []models.LogEntry
	decode(t, w, &active)
	if len(active) != 1 || active[0].Text != "nap" {
		t.Errorf("active = %+v", active)
	}
}

func TestListActive_UnencodableEntryIsGeneric500(t *testing.T) {
	s := store.NewMemoryStore()
	if _, err := s.InsertEntry(context.Background(), &models.LogEntry{
		Text:      "far future",
		Timestamp: time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}
	h := newTestRouter(t, s, "")

	w := do(t, h, http.MethodGet, "/api/logs", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, body %q", w.Code, w.Body.String())
	}
	var resp map[string]string
	decode(t, w, &resp)
	if resp["error"] != "Failed to fetch logs" {
		t.Errorf("error = %q", resp["error"])
	}
}

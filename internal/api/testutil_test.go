package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/time/rate"

	"github.com/kou-oishi/Elogbook-Backend/internal/api"
	"github.com/kou-oishi/Elogbook-Backend/internal/attachment"
	"github.com/kou-oishi/Elogbook-Backend/internal/download"
	"github.com/kou-oishi/Elogbook-Backend/internal/store"
	"github.com/kou-oishi/Elogbook-Backend/internal/testutil"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv holds the router and the collaborators behind it.
type testEnv struct {
	Router    http.Handler
	Entries   *store.EntryStore
	Downloads *download.Service
	Saver     *attachment.Saver
	Clock     *fakeClock
	Dir       string
}

type envOption func(*api.Deps)

func withLimiter(l *rate.Limiter) envOption {
	return func(d *api.Deps) { d.DownloadLimiter = l }
}

// newTestEnv creates an in-memory SQLite test database, runs migrations,
// and wires up the full API router with real stores and a fake download clock.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	dir := t.TempDir()
	clock := &fakeClock{now: t0}

	es := store.NewEntryStore(testutil.NewTestDB(t))
	svc := download.NewService(download.NewStore(), 5*time.Minute, 5*time.Minute, download.WithClock(clock.Now))
	saver := attachment.NewSaver(filepath.Join(dir, "attachments"))
	sm := scs.New()

	deps := api.Deps{
		Entries:   es,
		Downloads: svc,
		Saver:     saver,
		Sessions:  sm,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxUpload: 1 << 20,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		Router:    sm.LoadAndSave(api.NewAPIRouter(deps)),
		Entries:   es,
		Downloads: svc,
		Saver:     saver,
		Clock:     clock,
		Dir:       dir,
	}
}

// writeFile creates a file under the env's temp dir and returns its path.
func (env *testEnv) writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(env.Dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// do serves req and returns the recorder.
func (env *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.Router.ServeHTTP(rec, req)
	return rec
}

type upload struct {
	name string
	data []byte
}

// multipartRequest builds a POST /entries request.
func multipartRequest(t *testing.T, content string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != "" {
		if err := mw.WriteField("content", content); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("file", f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(f.data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest("POST", "/entries", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeEntries(t *testing.T, rec *httptest.ResponseRecorder) []api.EntryResponse {
	t.Helper()
	var resp []api.EntryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v; body: %s", err, rec.Body.String())
	}
	return resp
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/dynsite/dynsite/internal/cache"
	"github.com/dynsite/dynsite/internal/generator"
	"github.com/dynsite/dynsite/internal/logging"
	"github.com/dynsite/dynsite/internal/pages"
	"github.com/dynsite/dynsite/internal/server/routes"
)

func TestGetPageDataReturnsContentAndMenu(t *testing.T) {
	svc := &fakePages{pages: map[string]pages.Page{
		"/about": {Path: "/about", Content: "<h1>About</h1>", State: pages.StateServed},
	}}
	app := newTestApp(t, svc, "")

	resp := doGet(t, app, "/get_page_data?path=about")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	var body pageDataResponse
	decodeJSON(t, resp.Body, &body)
	if body.MainContentHTML != "<h1>About</h1>" {
		t.Fatalf("unexpected content %q", body.MainContentHTML)
	}
	if len(body.MenuItems) != 1 || body.MenuItems[0].Path != "/about" || !body.MenuItems[0].IsCurrent {
		t.Fatalf("unexpected menu %+v", body.MenuItems)
	}
	if svc.lastPath != "about" {
		t.Fatalf("raw path should be passed through, got %q", svc.lastPath)
	}
}

func TestGetPageDataDefaultsToRoot(t *testing.T) {
	svc := &fakePages{}
	app := newTestApp(t, svc, "")

	resp := doGet(t, app, "/get_page_data")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if svc.lastPath != "/" {
		t.Fatalf("expected root path, got %q", svc.lastPath)
	}
}

func TestGetPageDataFailedGenerationShowsPlaceholder(t *testing.T) {
	svc := &fakePages{pages: map[string]pages.Page{
		"/broken": {Path: "/broken", State: pages.StateFailed},
	}}
	app := newTestApp(t, svc, "")

	var body pageDataResponse
	decodeJSON(t, doGet(t, app, "/get_page_data?path=/broken").Body, &body)
	if body.MainContentHTML != FailedContentHTML {
		t.Fatalf("expected placeholder, got %q", body.MainContentHTML)
	}
}

func TestGetPageDataMenuKeyIsSnakeCase(t *testing.T) {
	app := newTestApp(t, &fakePages{}, "")

	raw, _ := io.ReadAll(doGet(t, app, "/get_page_data?path=/").Body)
	for _, key := range []string{`"main_content_html"`, `"menu_items"`, `"is_current"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("response missing %s: %s", key, raw)
		}
	}
}

func TestAISearch(t *testing.T) {
	svc := &fakePages{discovery: pages.Discovery{
		Path:    "/heat-pumps",
		Content: "<h1>Heat pumps</h1>",
		Menu:    []pages.MenuItem{{Name: "Heat Pumps", Path: "/heat-pumps", IsCurrent: true}},
	}}
	app := newTestApp(t, svc, "")

	resp := doGet(t, app, "/ai_search?query="+url.QueryEscape("heat pumps"))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body searchResponse
	decodeJSON(t, resp.Body, &body)
	if body.NewPath != "/heat-pumps" || body.MainContentHTML != "<h1>Heat pumps</h1>" || len(body.MenuItems) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
	if svc.lastQuery != "heat pumps" {
		t.Fatalf("unexpected query %q", svc.lastQuery)
	}
}

func TestAISearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", fmt.Errorf("%w: query is required", pages.ErrInvalidInput), fiber.StatusBadRequest, "invalid_input"},
		{"malformed", fmt.Errorf("%w: %w", pages.ErrGenerationFailure, generator.ErrMalformedResponse), fiber.StatusInternalServerError, "generation_failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &fakePages{discoverErr: tc.err}, "")
			resp := doGet(t, app, "/ai_search?query=x")
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			var body errorResponse
			decodeJSON(t, resp.Body, &body)
			if body.Error != tc.code || body.Details == "" {
				t.Fatalf("unexpected error body %+v", body)
			}
		})
	}
}

func TestCatchAllRendersTemplate(t *testing.T) {
	svc := &fakePages{pages: map[string]pages.Page{
		"/services/ev-chargers": {Path: "/services/ev-chargers", Content: "<h1>EV</h1>", State: pages.StateGenerated},
	}}
	app := newTestApp(t, svc, "")

	resp := doGet(t, app, "/services/ev-chargers")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html content type, got %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `<div id="main-content"><h1>EV</h1></div>`) {
		t.Fatalf("fragment not rendered:\n%s", raw)
	}
	if !strings.Contains(string(raw), "<title>Services/Ev Chargers | Acme</title>") {
		t.Fatalf("title not rendered:\n%s", raw)
	}
}

func TestCatchAllMissingTemplate(t *testing.T) {
	svc := &fakePages{}
	app, err := NewApp(AppOptions{
		Logger:   logging.NewDiscard(),
		Pages:    svc,
		Renderer: NewRenderer(filepath.Join(t.TempDir(), "missing.html"), "", "Acme"),
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	resp := doGet(t, app, "/")
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if string(raw) != ErrorPageHTML {
		t.Fatalf("expected hardcoded error page, got %s", raw)
	}
}

func TestCatchAllSkippedPathIsNotFound(t *testing.T) {
	svc := &fakePages{skip: []string{"/favicon.ico"}}
	app := newTestApp(t, svc, "")

	resp := doGet(t, app, "/favicon.ico")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if svc.lastPath != "" {
		t.Fatalf("skipped paths must not reach the page service")
	}
}

func TestStaticFilesServed(t *testing.T) {
	staticDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(staticDir, "site.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatalf("write static file: %v", err)
	}
	app := newTestApp(t, &fakePages{}, staticDir)

	resp := doGet(t, app, "/static/site.css")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if string(raw) != "body{}" {
		t.Fatalf("unexpected static body %q", raw)
	}
}

func TestDiagnosticsBypassCatchAll(t *testing.T) {
	svc := &fakePages{}
	app := newTestApp(t, svc, "")
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	routes.RegisterStatusRoutes(app, routes.StatusOptions{Store: store, Model: "m", Backend: "fs"})

	resp := doGet(t, app, "/-/status")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if svc.lastPath != "" {
		t.Fatalf("diagnostics must not render pages, got %q", svc.lastPath)
	}
}

func TestNewAppRequiresDependencies(t *testing.T) {
	if _, err := NewApp(AppOptions{}); err == nil {
		t.Fatalf("expected error without logger")
	}
	if _, err := NewApp(AppOptions{Logger: logging.NewDiscard()}); err == nil {
		t.Fatalf("expected error without page service")
	}
	if _, err := NewApp(AppOptions{Logger: logging.NewDiscard(), Pages: &fakePages{}}); err == nil {
		t.Fatalf("expected error without renderer")
	}
}

func newTestApp(t *testing.T, svc *fakePages, staticDir string) *fiber.App {
	t.Helper()

	app, err := NewApp(AppOptions{
		Logger:    logging.NewDiscard(),
		Pages:     svc,
		Renderer:  NewRenderer(writeTemplate(t, testTemplate), "", "Acme"),
		StaticDir: staticDir,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, r io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

type fakePages struct {
	pages       map[string]pages.Page
	discovery   pages.Discovery
	discoverErr error
	skip        []string
	lastPath    string
	lastQuery   string
}

func (f *fakePages) GetPageContent(_ context.Context, rawPath string) pages.Page {
	f.lastPath = rawPath
	path := "/" + strings.Trim(rawPath, "/")
	if page, ok := f.pages[path]; ok {
		return page
	}
	return pages.Page{Path: path, State: pages.StateServed}
}

func (f *fakePages) DiscoverPage(_ context.Context, query string) (pages.Discovery, error) {
	f.lastQuery = query
	if f.discoverErr != nil {
		return pages.Discovery{}, f.discoverErr
	}
	return f.discovery, nil
}

func (f *fakePages) Menu(_ context.Context, current string) []pages.MenuItem {
	return []pages.MenuItem{{Name: current, Path: current, IsCurrent: true}}
}

func (f *fakePages) Skipped(path string) bool {
	for _, p := range f.skip {
		if p == path {
			return true
		}
	}
	return false
}

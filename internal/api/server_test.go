package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/doctree"
	"github.com/dgallion1/docnav/internal/outline"
	"github.com/dgallion1/docnav/internal/pipeline"
)

type fakeBuilds struct {
	latest     *pipeline.Result
	rebuildRes *pipeline.Result
	rebuildErr error
	rebuilds   int
}

func (f *fakeBuilds) Latest() *pipeline.Result { return f.latest }

func (f *fakeBuilds) GetBuild(id string) *pipeline.Result {
	if f.latest != nil && f.latest.ID == id {
		return f.latest
	}
	return nil
}

func (f *fakeBuilds) Rebuild(ctx context.Context) (*pipeline.Result, pipeline.BuildStatus, error) {
	f.rebuilds++
	if f.rebuildErr != nil {
		return nil, pipeline.StatusFailed, f.rebuildErr
	}
	f.latest = f.rebuildRes
	return f.rebuildRes, pipeline.StatusBuilt, nil
}

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		ID:          "build-1",
		ContentHash: "abc123",
		Pages:       1,
		Sidebars: map[string]doctree.Sidebar{
			"root": {
				Locale: "root",
				Groups: []doctree.Group{{
					Text:  "Introduction",
					Items: []*doctree.Node{outline.Build("# Intro\n## Why\n", "/guide/intro")},
				}},
			},
		},
	}
}

func newTestServer(builds Builds) *Server {
	return NewServer(builds, slog.New(slog.DiscardHandler), config.Config{APIKey: "secret"})
}

func do(t *testing.T, s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeBuilds{}), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSidebars_NoBuildYet(t *testing.T) {
	s := newTestServer(&fakeBuilds{})
	for _, path := range []string{"/api/sidebar", "/api/sidebar/root"} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestSidebars(t *testing.T) {
	rec := do(t, newTestServer(&fakeBuilds{latest: sampleResult()}), http.MethodGet, "/api/sidebar", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Build    pipeline.Summary           `json:"build"`
		Sidebars map[string]doctree.Sidebar `json:"sidebars"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "build-1", body.Build.ID)
	item := body.Sidebars["root"].Groups[0].Items[0]
	assert.Equal(t, "/guide/intro#intro", item.Link)
	assert.True(t, item.IsCollapsed())
	assert.Equal(t, "/guide/intro#why", item.Children[0].Link)
}

func TestLocaleSidebar(t *testing.T) {
	s := newTestServer(&fakeBuilds{latest: sampleResult()})

	rec := do(t, s, http.MethodGet, "/api/sidebar/root", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"abc123"`, rec.Header().Get("ETag"))

	var sb doctree.Sidebar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sb))
	assert.Equal(t, "Introduction", sb.Groups[0].Text)

	rec = do(t, s, http.MethodGet, "/api/sidebar/fr", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBuild(t *testing.T) {
	s := newTestServer(&fakeBuilds{latest: sampleResult()})

	rec := do(t, s, http.MethodGet, "/api/builds/build-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content_hash":"abc123"`)

	rec = do(t, s, http.MethodGet, "/api/builds/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutline(t *testing.T) {
	s := newTestServer(&fakeBuilds{})

	rec := do(t, s, http.MethodPost, "/api/outline?doc_id=/guide/x", "# A\n## B {#bee}\n", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.JSONEq(t, `{"text":"A","link":"/guide/x#a","collapsed":true,"children":[{"text":"B","link":"/guide/x#bee"}]}`, rec.Body.String())
}

func TestOutline_HTML(t *testing.T) {
	s := newTestServer(&fakeBuilds{})

	rec := do(t, s, http.MethodPost, "/api/outline?doc_id=/p&format=html", "<h1 id=\"top\">Top</h1>", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"Top","link":"/p#top"}`, rec.Body.String())
}

func TestOutline_Errors(t *testing.T) {
	s := newTestServer(&fakeBuilds{})

	rec := do(t, s, http.MethodPost, "/api/outline", "# A", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing doc_id")

	rec = do(t, s, http.MethodPost, "/api/outline?doc_id=/p&format=pdf", "# A", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unsupported format")

	rec = do(t, s, http.MethodPost, "/api/outline?doc_id=/p", "no headings", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	big := strings.Repeat("x", maxOutlineBytes+1)
	rec = do(t, s, http.MethodPost, "/api/outline?doc_id=/p", big, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRebuild_Auth(t *testing.T) {
	builds := &fakeBuilds{rebuildRes: sampleResult()}
	s := newTestServer(builds)

	rec := do(t, s, http.MethodPost, "/api/rebuild", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/rebuild", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, builds.rebuilds)

	rec = do(t, s, http.MethodPost, "/api/rebuild", "", map[string]string{"Authorization": "Bearer secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"built"`)
	assert.Equal(t, 1, builds.rebuilds)
}

func TestRebuild_Failures(t *testing.T) {
	auth := map[string]string{"Authorization": "Bearer secret"}

	builds := &fakeBuilds{rebuildErr: fmt.Errorf("%w: guide/missing", pipeline.ErrPageNotFound)}
	rec := do(t, newTestServer(builds), http.MethodPost, "/api/rebuild", "", auth)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "guide/missing")

	builds = &fakeBuilds{rebuildErr: fmt.Errorf("disk on fire")}
	rec = do(t, newTestServer(builds), http.MethodPost, "/api/rebuild", "", auth)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

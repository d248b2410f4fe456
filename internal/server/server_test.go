package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/engine"
	"github.com/3leaps/lintkit/pkg/jobregistry"
	"github.com/3leaps/lintkit/pkg/linter"
)

type stubEngine struct {
	docs  []linter.Document
	diags map[int][]diag.Diagnostic
	hist  map[int][]jobregistry.RunRecord
	stats engine.Stats
}

func (s *stubEngine) Documents() []linter.Document { return s.docs }

func (s *stubEngine) Diagnostics(id int) ([]diag.Diagnostic, bool) {
	d, ok := s.diags[id]
	return d, ok
}

func (s *stubEngine) History(id int) []jobregistry.RunRecord { return s.hist[id] }

func (s *stubEngine) Stats() engine.Stats { return s.stats }

func newTestServer() (*Server, *stubEngine) {
	eng := &stubEngine{
		docs: []linter.Document{
			{ID: 1, Path: "/src/app.py", Lines: []string{"x = 1", "y = 2"}},
		},
		diags: map[int][]diag.Diagnostic{
			1: {{Linter: "flake8", Text: "unused import", Line: 1, Col: 1, Severity: diag.SeverityWarning, Code: "F401"}},
			2: nil,
		},
		hist: map[int][]jobregistry.RunRecord{},
		stats: engine.Stats{
			Documents:   1,
			JobsStarted: 3,
			Publishes:   2,
		},
	}
	return New("127.0.0.1", 0, eng), eng
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Port(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"default port", 8766},
		{"custom port", 9000},
		{"zero port", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New("127.0.0.1", tt.port, &stubEngine{})
			assert.Equal(t, tt.port, srv.Port())
		})
	}
}

func TestServer_NotFoundUsesErrorEnvelope(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/does-not-exist")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/version", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "METHOD_NOT_ALLOWED", body.Error.Code)
}

func TestServer_Documents(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/v1/documents")
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []documentSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&docs))
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].ID)
	assert.Equal(t, "/src/app.py", docs[0].Path)
	assert.Equal(t, 2, docs[0].Lines)
}

func TestServer_Diagnostics(t *testing.T) {
	srv, _ := newTestServer()

	t.Run("tracked document", func(t *testing.T) {
		rec := get(t, srv, "/v1/documents/1/diagnostics")
		require.Equal(t, http.StatusOK, rec.Code)

		var diags []diag.Diagnostic
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&diags))
		require.Len(t, diags, 1)
		assert.Equal(t, "flake8", diags[0].Linter)
		assert.Equal(t, "F401", diags[0].Code)
	})

	t.Run("tracked document with no findings returns empty array", func(t *testing.T) {
		rec := get(t, srv, "/v1/documents/2/diagnostics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("unknown document", func(t *testing.T) {
		rec := get(t, srv, "/v1/documents/99/diagnostics")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var body HTTPErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		rec := get(t, srv, "/v1/documents/abc/diagnostics")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body HTTPErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "INVALID_ARGUMENT", body.Error.Code)
	})
}

func TestServer_Stats(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(t, srv, "/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats engine.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(3), stats.JobsStarted)
	assert.Equal(t, int64(2), stats.Publishes)
}

func TestServer_HealthAndVersion(t *testing.T) {
	srv, _ := newTestServer()
	srv.SetVersion("1.2.3")

	rec := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, srv, "/version")
	require.Equal(t, http.StatusOK, rec.Code)

	var v map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	assert.Equal(t, "1.2.3", v["version"])
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driven/storage/memory"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/domain"
	"github.com/wbattistetti/AILawyer-sub000/internal/core/services"
)

type stubExporter struct {
	caseID string
	err    error
}

func (e *stubExporter) Export(_ context.Context, w io.Writer, caseID string) error {
	e.caseID = caseID
	if e.err != nil {
		return e.err
	}
	_, err := w.Write([]byte("xlsx"))
	return err
}

func newTestServer(t *testing.T, exports *stubExporter) *Server {
	t.Helper()
	ctx := context.Background()
	index := memory.NewEntityIndex()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, index.UpsertPersons(ctx, []domain.Person{
		{ID: "p_1", CaseID: "c1", FullName: "Mario Rossi", TaxCode: "RSSMRA80A01H501U", Confidence: 0.9, OccurrenceCount: 2},
		{ID: "p_2", CaseID: "c1", FullName: "Anna Bianchi", Confidence: 0.6, OccurrenceCount: 1},
		{ID: "p_3", CaseID: "c2", FullName: "Luca Verdi", Confidence: 0.75, OccurrenceCount: 1},
	}))
	require.NoError(t, index.UpsertOccurrences(ctx, []domain.OccurrenceRecord{
		{ID: "o1", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 1, CreatedAt: at},
		{ID: "o2", CaseID: "c1", PersonID: "p_1", DocID: "d", Page: 4, CreatedAt: at.Add(time.Second)},
	}))
	require.NoError(t, index.SetDocSnapshot(ctx, domain.DocSnapshot{
		CaseID: "c1", ContentHash: "h1", DocID: "d", ExtractedAt: at,
	}))

	if exports == nil {
		return NewServer(services.NewEntityService(index), nil)
	}
	return NewServer(services.NewEntityService(index), exports)
}

func do(t *testing.T, s *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodGet, "/healthz", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ailawyer_http_requests_total")
}

func TestServer_SearchPersons(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/persons?case=c1&sort=confidence", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Persons []domain.Person `json:"persons"`
		Count   int             `json:"count"`
	}
	decode(t, rec, &resp)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "p_1", resp.Persons[0].ID)
	assert.Equal(t, "p_2", resp.Persons[1].ID)
}

func TestServer_SearchPersonsFilters(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/persons?has_cf=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Persons []domain.Person `json:"persons"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Persons, 1)
	assert.Equal(t, "Mario Rossi", resp.Persons[0].FullName)
}

func TestServer_SearchPersonsEmptyIsArray(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/persons?q=nobody", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"persons":[]`)
}

func TestServer_SearchPersonsBadParams(t *testing.T) {
	s := newTestServer(t, nil)

	for _, q := range []string{
		"has_dob=maybe",
		"min_confidence=high",
		"min_confidence=2",
		"limit=-1",
		"offset=x",
		"sort=age",
	} {
		rec := do(t, s, http.MethodGet, "/api/persons?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestServer_GetPerson(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/persons/p_3?case=c2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.Person
	decode(t, rec, &p)
	assert.Equal(t, "Luca Verdi", p.FullName)

	rec = do(t, s, http.MethodGet, "/api/persons/p_3?case=c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Occurrences(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/persons/p_1/occurrences?case=c1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Occurrences []domain.OccurrenceRecord `json:"occurrences"`
		Count       int                       `json:"count"`
	}
	decode(t, rec, &resp)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "o1", resp.Occurrences[0].ID)

	rec = do(t, s, http.MethodGet, "/api/persons/p_1/occurrences?case=c2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Count)

	rec = do(t, s, http.MethodGet, "/api/persons/p_1/occurrences?case=c1&limit=lots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Pending(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"docs":[
		{"id":"d","title":"Atto","page_count":2,"content_hash":"h1","case_id":"c1"},
		{"id":"d","title":"Atto","page_count":2,"content_hash":"h1","case_id":"c2"},
		{"id":"e","title":"Ricorso","page_count":1,"content_hash":"h2","case_id":"c1"}
	]}`

	rec := do(t, s, http.MethodPost, "/api/pending", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pendingResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Pending, 2)
	assert.Equal(t, "c2", resp.Pending[0].CaseID)
	assert.Equal(t, "e", resp.Pending[1].ID)
}

func TestServer_PendingBadBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/pending", strings.NewReader("{"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")
}

func TestServer_SnapshotsAndClearCase(t *testing.T) {
	s := newTestServer(t, nil)

	var snaps struct {
		Snapshots []domain.DocSnapshot `json:"snapshots"`
	}
	rec := do(t, s, http.MethodGet, "/api/snapshots?case=c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &snaps)
	require.Len(t, snaps.Snapshots, 1)

	rec = do(t, s, http.MethodDelete, "/api/cases/c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/snapshots?case=c1", nil)
	decode(t, rec, &snaps)
	assert.Empty(t, snaps.Snapshots)

	rec = do(t, s, http.MethodGet, "/api/persons/p_3?case=c2", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "other cases survive")
}

func TestServer_Export(t *testing.T) {
	exports := &stubExporter{}
	s := newTestServer(t, exports)

	rec := do(t, s, http.MethodGet, "/api/export?case=c1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", exports.caseID)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ailawyer-c1.xlsx")
	assert.Equal(t, "xlsx", rec.Body.String())
}

func TestServer_ExportNotMountedWithoutExporter(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/api/export", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ExportFailureIsLogged(t *testing.T) {
	exports := &stubExporter{err: errors.New("disk full")}
	s := newTestServer(t, exports)

	rec := do(t, s, http.MethodGet, "/api/export", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrLocked, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tt.err)
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

func TestRequestLogger_KeepsStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", bytes.NewReader(nil)))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequestLogger_Flushes(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		_, _ = w.Write([]byte("data: 1\n\n"))
		f.Flush()
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.True(t, rec.Flushed)
}

func TestServer_Mount(t *testing.T) {
	s := newTestServer(t, nil)
	s.Mount("/mcp", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := do(t, s, http.MethodPost, "/mcp", strings.NewReader("{}"))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

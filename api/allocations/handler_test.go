package allocations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/maskalloc/app"
	"github.com/kilianp07/maskalloc/config"
	"github.com/kilianp07/maskalloc/core/allocation"
	coremetrics "github.com/kilianp07/maskalloc/core/metrics"
	"github.com/kilianp07/maskalloc/core/runlog"
	"github.com/kilianp07/maskalloc/infra/ingest"
	"github.com/kilianp07/maskalloc/infra/mqtt"
)

type fakeAllocator struct {
	lastInput app.Input
	lastQuery runlog.Query
	err       error
	records   []runlog.RunRecord
}

func (f *fakeAllocator) Allocate(_ context.Context, in app.Input) (*allocation.Result, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &allocation.Result{RunID: "run-1", Moves: 3}, nil
}

func (f *fakeAllocator) Runs(_ context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	f.lastQuery = q
	return f.records, f.err
}

func (f *fakeAllocator) Run(_ context.Context, id string) (runlog.RunRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return runlog.RunRecord{}, runlog.ErrNotFound
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreate(t *testing.T) {
	f := &fakeAllocator{}
	h := NewRouter(f, Options{})
	rr := do(t, h, http.MethodPost, "/api/allocations",
		`{"pharmacies":[{"id":"a","x":1,"y":1}],"streets":[{"rue":"r","cp":"6000","n":4,"x":2,"y":2}],"rounds":5}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var res allocation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "run-1", res.RunID)
	require.Len(t, f.lastInput.Streets, 1)
	assert.Equal(t, 4, f.lastInput.Streets[0].Population)
	require.NotNil(t, f.lastInput.Rounds)
	assert.Equal(t, 5, *f.lastInput.Rounds)
	assert.Nil(t, f.lastInput.Coeff)
}

func TestCreate_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"malformed", `{"pharmacies":`, nil},
		{"unknown field", `{"vehicles":[]}`, nil},
		{"duplicate", `{}`, ingest.ErrDuplicateStreet},
		{"config", `{}`, allocation.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(&fakeAllocator{err: tt.err}, Options{})
			rr := do(t, h, http.MethodPost, "/api/allocations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), "error")
		})
	}
}

func TestCreate_InternalError(t *testing.T) {
	h := NewRouter(&fakeAllocator{err: errors.New("disk full")}, Options{})
	rr := do(t, h, http.MethodPost, "/api/allocations", `{}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk full")
}

func TestCreate_BodyLimit(t *testing.T) {
	h := NewRouter(&fakeAllocator{}, Options{MaxBodyBytes: 8})
	rr := do(t, h, http.MethodPost, "/api/allocations", `{"pharmacies":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestList_Filters(t *testing.T) {
	f := &fakeAllocator{records: []runlog.RunRecord{{ID: "r1"}}}
	h := NewRouter(f, Options{})
	rr := do(t, h, http.MethodGet, "/api/allocations?facility=ph1&start=2020-04-22T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ph1", f.lastQuery.PharmacyID)
	assert.Equal(t, time.Date(2020, 4, 22, 0, 0, 0, 0, time.UTC), f.lastQuery.Start)
	assert.True(t, f.lastQuery.End.IsZero())

	var recs []runlog.RunRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	assert.Len(t, recs, 1)

	rr = do(t, h, http.MethodGet, "/api/allocations?end=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestList_EmptyIsArray(t *testing.T) {
	rr := do(t, NewRouter(&fakeAllocator{}, Options{}), http.MethodGet, "/api/allocations", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestGet(t *testing.T) {
	h := NewRouter(&fakeAllocator{records: []runlog.RunRecord{{ID: "r1", Moves: 7}}}, Options{})
	rr := do(t, h, http.MethodGet, "/api/allocations/r1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"moves":7`)

	rr = do(t, h, http.MethodGet, "/api/allocations/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuth(t *testing.T) {
	h := NewRouter(&fakeAllocator{}, Options{Token: "tok"})
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/allocations", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/allocations", "", "Authorization", "Bearer tok").Code)
}

func TestMetricsMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	h := NewRouter(&fakeAllocator{}, Options{Token: "tok", Metrics: metrics})
	rr := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestRouter_WithService(t *testing.T) {
	cfg := config.Default()
	cfg.RunLog = runlog.Config{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "runs.db")}
	svc, err := app.New(&cfg, app.WithSink(coremetrics.NopSink{}), app.WithPublisher(mqtt.NewMockPublisher()))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()
	h := NewRouter(svc, Options{})

	body := `{
	  "pharmacies": [{"id": "A", "x": 0, "y": 1}, {"id": "B", "x": 100, "y": 1}, {"id": "C", "x": 200, "y": 1}],
	  "streets": [
	    {"rue": "s0", "cp": "6000", "n": 10, "x": 0, "y": 1},
	    {"rue": "s1", "cp": "6000", "n": 10, "x": 50, "y": 1},
	    {"rue": "s2", "cp": "6000", "n": 10, "x": 100, "y": 1},
	    {"rue": "s3", "cp": "6000", "n": 70, "x": 200, "y": 1}
	  ],
	  "coeff": 1.5,
	  "rounds": 10
	}`
	rr := do(t, h, http.MethodPost, "/api/allocations", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res allocation.Result
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 100, res.Population)
	total := 0
	for _, p := range res.Pharmacies {
		total += p.Load
	}
	assert.Equal(t, 100, total)

	rr = do(t, h, http.MethodGet, "/api/allocations/"+res.RunID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/allocations?facility=C", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var recs []runlog.RunRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, res.RunID, recs[0].ID)

	rr = do(t, h, http.MethodPost, "/api/allocations", `{"pharmacies":[{"id":"A"},{"id":"A"}],"streets":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/maskalloc/core/metrics"
)

type influxRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *influxRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, strings.TrimSpace(string(data)))
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordRound(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.RoundEvent{RunID: "r1", Round: 2, Moves: 1, Changed: 2, Min: 20, Mean: 25, Max: 30, StdDev: 5.00049, Time: now}
	require.NoError(t, sink.RecordRound(ev))

	p := write.NewPointWithMeasurement("allocation_round").
		AddTag("run_id", "r1").
		AddField("round", 2).
		AddField("moves", 1).
		AddField("changed", 2).
		AddField("min", 20).
		AddField("mean", 25.0).
		AddField("max", 30).
		AddField("stddev", 5.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, expected, rec.bodies[0])
}

func TestInfluxSink_RecordRun(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.RunEvent{
		RunID:      "r1",
		Pharmacies: 2,
		Streets:    5,
		Population: 50,
		Time:       now,
		Loads: []coremetrics.PharmacyLoad{
			{PharmacyID: "p1", Initial: 50, Final: 30},
			{PharmacyID: "p2", Initial: 0, Final: 20},
		},
	}
	require.NoError(t, sink.RecordRun(ev))
	require.Len(t, rec.bodies, 1)

	lines := strings.Split(rec.bodies[0], "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "allocation_run,run_id=r1 "))
	p := write.NewPointWithMeasurement("pharmacy_load").
		AddTag("run_id", "r1").
		AddTag("pharmacy_id", "p2").
		AddField("initial", 0).
		AddField("final", 20).
		SetTime(now)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond)), lines[2])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called, "health endpoint not called")
}

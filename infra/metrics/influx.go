package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/maskalloc/core/metrics"
	"github.com/kilianp07/maskalloc/infra/logger"
)

// InfluxSink writes allocation events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.AllocationSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRound writes the load statistics of a rebalancing round.
func (s *InfluxSink) RecordRound(ev coremetrics.RoundEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("allocation_round").
		AddTag("run_id", ev.RunID).
		AddField("round", ev.Round).
		AddField("moves", ev.Moves).
		AddField("changed", ev.Changed).
		AddField("min", ev.Min).
		AddField("mean", round3(ev.Mean)).
		AddField("max", ev.Max).
		AddField("stddev", round3(ev.StdDev)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes the run summary followed by one point per pharmacy.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Loads)+1)
	points = append(points, write.NewPointWithMeasurement("allocation_run").
		AddTag("run_id", ev.RunID).
		AddField("pharmacies", ev.Pharmacies).
		AddField("streets", ev.Streets).
		AddField("population", ev.Population).
		AddField("target_load", round3(ev.TargetLoad)).
		AddField("rounds", ev.Rounds).
		AddField("moves", ev.Moves).
		AddField("initial_stddev", round3(ev.InitialStdDev)).
		AddField("final_stddev", round3(ev.FinalStdDev)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time))
	for _, l := range ev.Loads {
		points = append(points, write.NewPointWithMeasurement("pharmacy_load").
			AddTag("run_id", ev.RunID).
			AddTag("pharmacy_id", l.PharmacyID).
			AddField("initial", l.Initial).
			AddField("final", l.Final).
			SetTime(ev.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

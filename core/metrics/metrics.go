package metrics

import "time"

// RoundEvent describes the pharmacy loads at the end of a rebalancing round.
type RoundEvent struct {
	RunID   string
	Round   int
	Moves   int
	Changed int
	Min     int
	Mean    float64
	Max     int
	StdDev  float64
	Time    time.Time
}

// PharmacyLoad is the load of one pharmacy before and after rebalancing.
type PharmacyLoad struct {
	PharmacyID string
	Name       string
	Initial    int
	Final      int
}

// RunEvent summarises a completed allocation run.
type RunEvent struct {
	RunID         string
	Pharmacies    int
	Streets       int
	Population    int
	TargetLoad    float64
	Rounds        int
	Moves         int
	InitialStdDev float64
	FinalStdDev   float64
	Loads         []PharmacyLoad
	Duration      time.Duration
	Time          time.Time
}

// AllocationSink records allocation events for observability purposes.
type AllocationSink interface {
	RecordRound(ev RoundEvent) error
	RecordRun(ev RunEvent) error
}

// NopSink implements AllocationSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRound(RoundEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error     { return nil }

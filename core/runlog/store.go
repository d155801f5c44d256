package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/maskalloc/core/allocation"
)

// ErrNotFound is returned by Get when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// RunRecord summarises one allocation run.
type RunRecord struct {
	ID         string                   `json:"id"`
	Timestamp  time.Time                `json:"timestamp"`
	Coeff      float64                  `json:"coeff"`
	Rounds     int                      `json:"rounds"`
	Pharmacies int                      `json:"pharmacies"`
	Streets    int                      `json:"streets"`
	Population int                      `json:"population"`
	TargetLoad float64                  `json:"target_load"`
	Moves      int                      `json:"moves"`
	Initial    allocation.LoadStats     `json:"initial"`
	Final      allocation.LoadStats     `json:"final"`
	Changes    []allocation.Change      `json:"changes"`
	Loads      []allocation.PharmacyRow `json:"loads"`
}

// FromResult builds the record of an allocation result.
func FromResult(res *allocation.Result) RunRecord {
	return RunRecord{
		ID:         res.RunID,
		Timestamp:  res.Timestamp,
		Coeff:      res.Coeff,
		Rounds:     res.Rounds,
		Pharmacies: len(res.Pharmacies),
		Streets:    len(res.Streets),
		Population: res.Population,
		TargetLoad: res.TargetLoad,
		Moves:      res.Moves,
		Initial:    res.Initial,
		Final:      res.Final,
		Changes:    res.Changes,
		Loads:      res.Pharmacies,
	}
}

// Query defines filters for retrieving records. Zero values match
// everything.
type Query struct {
	Start time.Time
	End   time.Time
	// PharmacyID keeps runs in which the pharmacy took part.
	PharmacyID string
}

// Match reports whether r satisfies the query.
func (q Query) Match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.PharmacyID == "" {
		return true
	}
	for _, l := range r.Loads {
		if l.ID == q.PharmacyID {
			return true
		}
	}
	return false
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Get(ctx context.Context, id string) (RunRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]RunRecord, error) { return nil, nil }
func (NopStore) Get(context.Context, string) (RunRecord, error)    { return RunRecord{}, ErrNotFound }
func (NopStore) Close() error                                      { return nil }

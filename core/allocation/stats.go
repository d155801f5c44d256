package allocation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LoadStats summarises the distribution of pharmacy loads.
type LoadStats struct {
	Min    int     `json:"min"`
	Mean   float64 `json:"mean"`
	Max    int     `json:"max"`
	StdDev float64 `json:"stddev"` // population standard deviation
}

// ComputeLoadStats returns the statistics of loads. Empty input yields zero
// values.
func ComputeLoadStats(loads []int) LoadStats {
	if len(loads) == 0 {
		return LoadStats{}
	}
	xs := make([]float64, len(loads))
	for i, l := range loads {
		xs[i] = float64(l)
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	return LoadStats{
		Min:    int(floats.Min(xs)),
		Mean:   mean,
		Max:    int(floats.Max(xs)),
		StdDev: std,
	}
}

// RoundStats describes the partition at the end of a rebalancing round.
type RoundStats struct {
	Round   int `json:"round"`
	Moves   int `json:"moves"`
	Changed int `json:"changed"` // pharmacies whose load differs from the initial one
	LoadStats
}

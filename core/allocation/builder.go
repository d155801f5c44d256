package allocation

import "github.com/kilianp07/maskalloc/core/model"

// Build assigns every street to its nearest pharmacy. Ties go to the first
// pharmacy in input order. Without pharmacies the partition is empty and the
// streets are dropped.
func Build(pharmacies []model.Pharmacy, streets []model.Street) *Partition {
	if len(pharmacies) == 0 {
		return newPartition(nil, 0)
	}
	p := newPartition(pharmacies, len(streets))
	for _, s := range streets {
		p.assign(s, nearest(pharmacies, s))
	}
	return p
}

func nearest(pharmacies []model.Pharmacy, s model.Street) int {
	best := 0
	bestD := pharmacies[0].DistanceSquared(s.X, s.Y)
	for i := 1; i < len(pharmacies); i++ {
		if d := pharmacies[i].DistanceSquared(s.X, s.Y); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

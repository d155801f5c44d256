package ingest

// BBox is the city bounding box in projected coordinates. The zero value
// accepts every located point.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// IsZero reports whether no box is configured.
func (b BBox) IsZero() bool { return b == BBox{} }

// Contains reports whether (x, y) lies inside the box, bounds included.
// The origin is never contained since it marks a failed geocoding.
func (b BBox) Contains(x, y float64) bool {
	if x == 0 || y == 0 {
		return false
	}
	if b.IsZero() {
		return true
	}
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

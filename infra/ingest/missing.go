package ingest

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/kilianp07/maskalloc/core/model"
)

// Point is a projected coordinate pair.
type Point struct {
	X float64
	Y float64
}

// MissingStreets maps normalised street keys to hand geocoded positions.
type MissingStreets map[string]Point

// LoadMissingStreets reads the CSV of manually geocoded streets. The first
// column holds "name zip", the last zip token being the postal code. The
// coordinates must already be projected into the same planar x;y system as
// the street and pharmacy files; latitude/longitude tables have to be
// converted beforehand.
func LoadMissingStreets(path string) (MissingStreets, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return ReadMissingStreets(file)
}

// ReadMissingStreets parses "name zip;x;y" rows after a header line. Rows
// whose values both fit in [-180, 180] are rejected as unprojected degrees.
func ReadMissingStreets(r io.Reader) (MissingStreets, error) {
	rows, err := readCSV(r, 3)
	if err != nil {
		return nil, fmt.Errorf("read missing streets: %w", err)
	}
	out := make(MissingStreets, len(rows))
	for i, row := range rows {
		label := strings.TrimSpace(row[0])
		cut := strings.LastIndex(label, " ")
		if cut <= 0 {
			return nil, fmt.Errorf("%w: missing street row %d: no zip in %q", ErrInvalidInput, i+2, label)
		}
		x, err := parseCoord(row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: missing street row %d: x: %v", ErrInvalidInput, i+2, err)
		}
		y, err := parseCoord(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: missing street row %d: y: %v", ErrInvalidInput, i+2, err)
		}
		if looksLikeDegrees(x, y) {
			return nil, fmt.Errorf("%w: missing street row %d: %v;%v looks like latitude/longitude, expected projected x;y",
				ErrInvalidInput, i+2, x, y)
		}
		out[streetKey(label[:cut], label[cut+1:])] = Point{X: x, Y: y}
	}
	return out, nil
}

func looksLikeDegrees(x, y float64) bool {
	return math.Abs(x) <= 180 && math.Abs(y) <= 180
}

// Fill sets the coordinates of every unlocated street found in m and
// returns how many were completed.
func (m MissingStreets) Fill(streets []model.Street) int {
	filled := 0
	for i := range streets {
		if streets[i].Located() {
			continue
		}
		if p, ok := m[streetKey(streets[i].Name, streets[i].Zip)]; ok {
			streets[i].X, streets[i].Y = p.X, p.Y
			filled++
		}
	}
	return filled
}

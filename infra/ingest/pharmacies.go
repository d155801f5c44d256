package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kilianp07/maskalloc/core/model"
)

// flexID accepts both JSON strings and numbers. The geocoding cache stores
// pharmacy IDs as integer hashes.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(b)
	return nil
}

type pharmacyJSON struct {
	ID    flexID  `json:"id"`
	Name  string  `json:"name"`
	Descr string  `json:"descr"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// LoadPharmacies reads pharmacies from a JSON or CSV file.
func LoadPharmacies(path string) ([]model.Pharmacy, error) {
	f, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	if f == formatCSV {
		return ReadPharmaciesCSV(file)
	}
	return ReadPharmaciesJSON(file)
}

// ReadPharmaciesJSON decodes an array of {id, name, descr, x, y} objects.
func ReadPharmaciesJSON(r io.Reader) ([]model.Pharmacy, error) {
	var raw []pharmacyJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode pharmacies: %w", err)
	}
	out := make([]model.Pharmacy, len(raw))
	for i, p := range raw {
		out[i] = model.Pharmacy{ID: string(p.ID), Name: p.Name, Descr: p.Descr, X: p.X, Y: p.Y}
	}
	return out, nil
}

// ReadPharmaciesCSV reads id;name;descr;x;y rows after a header line.
func ReadPharmaciesCSV(r io.Reader) ([]model.Pharmacy, error) {
	rows, err := readCSV(r, 5)
	if err != nil {
		return nil, fmt.Errorf("read pharmacies: %w", err)
	}
	out := make([]model.Pharmacy, 0, len(rows))
	for i, row := range rows {
		x, err := parseCoord(row[3])
		if err != nil {
			return nil, fmt.Errorf("%w: pharmacy row %d: x: %v", ErrInvalidInput, i+2, err)
		}
		y, err := parseCoord(row[4])
		if err != nil {
			return nil, fmt.Errorf("%w: pharmacy row %d: y: %v", ErrInvalidInput, i+2, err)
		}
		out = append(out, model.Pharmacy{
			ID:    strings.TrimSpace(row[0]),
			Name:  strings.TrimSpace(row[1]),
			Descr: strings.TrimSpace(row[2]),
			X:     x,
			Y:     y,
		})
	}
	return out, nil
}

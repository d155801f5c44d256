package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/maskalloc/core/model"
)

// LoadStreets reads streets from a JSON or CSV file.
func LoadStreets(path string) ([]model.Street, error) {
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
		return ReadStreetsCSV(file)
	}
	return ReadStreetsJSON(file)
}

// ReadStreetsJSON decodes an array of {rue, cp, n, x, y} objects.
func ReadStreetsJSON(r io.Reader) ([]model.Street, error) {
	var out []model.Street
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode streets: %w", err)
	}
	return out, nil
}

// ReadStreetsCSV reads name;zip;n;x;y rows after a header line. Empty
// coordinates are read as zero so the street can be completed later.
func ReadStreetsCSV(r io.Reader) ([]model.Street, error) {
	rows, err := readCSV(r, 3)
	if err != nil {
		return nil, fmt.Errorf("read streets: %w", err)
	}
	out := make([]model.Street, 0, len(rows))
	for i, row := range rows {
		n, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: street row %d: population: %v", ErrInvalidInput, i+2, err)
		}
		s := model.Street{Name: strings.TrimSpace(row[0]), Zip: strings.TrimSpace(row[1]), Population: n}
		if len(row) >= 5 && strings.TrimSpace(row[3]) != "" && strings.TrimSpace(row[4]) != "" {
			if s.X, err = parseCoord(row[3]); err != nil {
				return nil, fmt.Errorf("%w: street row %d: x: %v", ErrInvalidInput, i+2, err)
			}
			if s.Y, err = parseCoord(row[4]); err != nil {
				return nil, fmt.Errorf("%w: street row %d: y: %v", ErrInvalidInput, i+2, err)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

type format int

const (
	formatJSON format = iota
	formatCSV
)

func detectFormat(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".poppy":
		return formatJSON, nil
	case ".csv":
		return formatCSV, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// readCSV returns the data rows of a semicolon separated file, skipping the
// header row.
func readCSV(r io.Reader, minFields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	records = records[1:]
	for i, rec := range records {
		if len(rec) < minFields {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrInvalidInput, i+2, len(rec), minFields)
		}
	}
	return records, nil
}

// parseCoord accepts both decimal points and decimal commas.
func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/maskalloc/config"
	"github.com/kilianp07/maskalloc/core/allocation"
	"github.com/kilianp07/maskalloc/pkg/export"
)

// writeReports writes the report files selected by out and returns their
// paths.
func writeReports(out config.OutputConfig, res *allocation.Result) ([]string, error) {
	if err := os.MkdirAll(out.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	type report struct {
		name  string
		write func(io.Writer) error
	}
	reports := []report{
		{"pharmacies.csv", func(w io.Writer) error { return export.WriteFacilitiesCSV(w, res.Pharmacies, out.Header) }},
		{"assignments.csv", func(w io.Writer) error { return export.WriteAssignmentsCSV(w, res.Assignments, out.Header) }},
	}
	if out.JSON {
		reports = append(reports, report{"result.json", func(w io.Writer) error { return export.WriteJSON(w, res) }})
	}
	if out.Chart {
		reports = append(reports, report{"loads.html", func(w io.Writer) error { return export.WriteLoadChart(w, res) }})
	}

	paths := make([]string, 0, len(reports))
	for _, r := range reports {
		path := filepath.Join(out.Dir, r.name)
		if err := writeFile(path, r.write); err != nil {
			return paths, fmt.Errorf("write %s: %w", r.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

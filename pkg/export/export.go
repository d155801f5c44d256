package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/maskalloc/core/allocation"
)

// WriteJSON writes the whole allocation result to w in JSON format.
func WriteJSON(w io.Writer, res *allocation.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

var (
	facilityHeader   = []string{"id", "index", "name", "descr", "load", "x", "y"}
	assignmentHeader = []string{"x", "y", "population", "street", "pharmacy_index", "pharmacy_id"}
)

// WriteFacilitiesCSV writes one line per pharmacy. The index column is the
// join key of the assignment file in GIS tools.
func WriteFacilitiesCSV(w io.Writer, rows []allocation.PharmacyRow, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(facilityHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		rec := []string{
			r.ID,
			strconv.Itoa(r.Index),
			r.Name,
			r.Descr,
			strconv.Itoa(r.Load),
			formatFloat(r.X),
			formatFloat(r.Y),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAssignmentsCSV writes one line per street, grouped by pharmacy.
func WriteAssignmentsCSV(w io.Writer, rows []allocation.AssignmentRow, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(assignmentHeader); err != nil {
			return err
		}
	}
	for _, r := range rows {
		rec := []string{
			formatFloat(r.X),
			formatFloat(r.Y),
			strconv.Itoa(r.Population),
			r.Street,
			strconv.Itoa(r.PharmacyIndex),
			r.PharmacyID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

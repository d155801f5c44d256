package allocation

// PharmacyRow is one line of the pharmacy report. Index is a small
// sequential number used to join assignment rows in GIS tools.
type PharmacyRow struct {
	ID          string  `json:"id"`
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Descr       string  `json:"descr"`
	Load        int     `json:"load"`
	InitialLoad int     `json:"initial_load"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// AssignmentRow is one line of the assignment report.
type AssignmentRow struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Population    int     `json:"population"`
	Street        string  `json:"street"`
	Zip           string  `json:"zip"`
	PharmacyIndex int     `json:"pharmacy_index"`
	PharmacyID    string  `json:"pharmacy_id"`
}

// StreetAssignment records the nearest and the final pharmacy of a street.
type StreetAssignment struct {
	Key        string `json:"key"`
	OriginalID string `json:"original_id"`
	CurrentID  string `json:"current_id"`
}

// Moved reports whether rebalancing changed the pharmacy of the street.
func (s StreetAssignment) Moved() bool { return s.OriginalID != s.CurrentID }

// Change describes a pharmacy whose load was modified by rebalancing.
type Change struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Initial int    `json:"initial"`
	Final   int    `json:"final"`
}

// PharmacyRows returns the pharmacy report in input order.
func (p *Partition) PharmacyRows() []PharmacyRow {
	rows := make([]PharmacyRow, len(p.facilities))
	for i := range p.facilities {
		f := &p.facilities[i]
		rows[i] = PharmacyRow{
			ID:          f.pharmacy.ID,
			Index:       i,
			Name:        f.pharmacy.Name,
			Descr:       f.pharmacy.Descr,
			Load:        f.load,
			InitialLoad: f.initialLoad,
			X:           f.pharmacy.X,
			Y:           f.pharmacy.Y,
		}
	}
	return rows
}

// AssignmentRows returns one row per street grouped by serving pharmacy.
func (p *Partition) AssignmentRows() []AssignmentRow {
	rows := make([]AssignmentRow, 0, len(p.points))
	for i := range p.facilities {
		id := p.facilities[i].pharmacy.ID
		for _, j := range p.Members(i) {
			s := p.points[j].street
			rows = append(rows, AssignmentRow{
				X:             s.X,
				Y:             s.Y,
				Population:    s.Population,
				Street:        s.Name,
				Zip:           s.Zip,
				PharmacyIndex: i,
				PharmacyID:    id,
			})
		}
	}
	return rows
}

// StreetAssignments returns the assignment record of every street in input
// order.
func (p *Partition) StreetAssignments() []StreetAssignment {
	out := make([]StreetAssignment, len(p.points))
	for j := range p.points {
		pt := &p.points[j]
		out[j] = StreetAssignment{
			Key:        pt.street.Key(),
			OriginalID: p.facilities[pt.original].pharmacy.ID,
			CurrentID:  p.facilities[pt.current].pharmacy.ID,
		}
	}
	return out
}

// Changes lists the pharmacies whose load differs from the initial one.
func (p *Partition) Changes() []Change {
	var out []Change
	for i := range p.facilities {
		f := &p.facilities[i]
		if f.load == f.initialLoad {
			continue
		}
		out = append(out, Change{ID: f.pharmacy.ID, Name: f.pharmacy.Name, Initial: f.initialLoad, Final: f.load})
	}
	return out
}

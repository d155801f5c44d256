package ingest

import (
	"fmt"
	"math"

	"github.com/kilianp07/maskalloc/core/logger"
	"github.com/kilianp07/maskalloc/core/model"
)

// Config locates the input files.
type Config struct {
	Pharmacies     string `json:"pharmacies"`
	Streets        string `json:"streets"`
	MissingStreets string `json:"missing_streets"`
	BBox           BBox   `json:"bbox"`
}

// Validate checks that both mandatory inputs are set.
func (c Config) Validate() error {
	if c.Pharmacies == "" {
		return fmt.Errorf("%w: input.pharmacies is required", ErrInvalidInput)
	}
	if c.Streets == "" {
		return fmt.Errorf("%w: input.streets is required", ErrInvalidInput)
	}
	if c.BBox.MinX > c.BBox.MaxX || c.BBox.MinY > c.BBox.MaxY {
		return fmt.Errorf("%w: input.bbox min exceeds max", ErrInvalidInput)
	}
	return nil
}

// Input is the validated allocation input.
type Input struct {
	Pharmacies []model.Pharmacy
	Streets    []model.Street
	Dropped    []model.Street
}

// Loader reads and cleans the inputs described by a Config.
type Loader struct {
	cfg Config
	log logger.Logger
}

// NewLoader returns a Loader. A nil logger discards messages.
func NewLoader(cfg Config, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop{}
	}
	return &Loader{cfg: cfg, log: log}
}

// Load reads pharmacies and streets, completes unlocated streets from the
// missing streets file, drops streets outside the bounding box and rejects
// duplicates.
func (l *Loader) Load() (Input, error) {
	if err := l.cfg.Validate(); err != nil {
		return Input{}, err
	}
	pharmacies, err := LoadPharmacies(l.cfg.Pharmacies)
	if err != nil {
		return Input{}, fmt.Errorf("load pharmacies: %w", err)
	}
	streets, err := LoadStreets(l.cfg.Streets)
	if err != nil {
		return Input{}, fmt.Errorf("load streets: %w", err)
	}
	if l.cfg.MissingStreets != "" {
		missing, err := LoadMissingStreets(l.cfg.MissingStreets)
		if err != nil {
			return Input{}, fmt.Errorf("load missing streets: %w", err)
		}
		n := missing.Fill(streets)
		l.log.Infof("completed %d streets from %s", n, l.cfg.MissingStreets)
	}

	kept, dropped := FilterBBox(streets, l.cfg.BBox)
	for _, s := range dropped {
		l.log.Warnf("street %s %s outside bounding box at (%.1f, %.1f), dropped", s.Name, s.Zip, s.X, s.Y)
	}
	if err := Validate(pharmacies, kept); err != nil {
		return Input{}, err
	}
	l.log.Infof("loaded %d pharmacies and %d streets (%d dropped)", len(pharmacies), len(kept), len(dropped))
	return Input{Pharmacies: pharmacies, Streets: kept, Dropped: dropped}, nil
}

// FilterBBox splits streets into those inside b and the others, keeping
// input order.
func FilterBBox(streets []model.Street, b BBox) (kept, dropped []model.Street) {
	kept = make([]model.Street, 0, len(streets))
	for _, s := range streets {
		if b.Contains(s.X, s.Y) {
			kept = append(kept, s)
		} else {
			dropped = append(dropped, s)
		}
	}
	return kept, dropped
}

// Validate rejects duplicate pharmacy IDs, duplicate street keys, negative
// populations and non finite coordinates.
func Validate(pharmacies []model.Pharmacy, streets []model.Street) error {
	ids := make(map[string]struct{}, len(pharmacies))
	for _, p := range pharmacies {
		if p.ID == "" {
			return fmt.Errorf("%w: pharmacy %q has no id", ErrInvalidInput, p.Name)
		}
		if _, ok := ids[p.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateFacility, p.ID)
		}
		ids[p.ID] = struct{}{}
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: pharmacy %s has invalid coordinates", ErrInvalidInput, p.ID)
		}
	}
	keys := make(map[string]struct{}, len(streets))
	for _, s := range streets {
		k := streetKey(s.Name, s.Zip)
		if _, ok := keys[k]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateStreet, s.Key())
		}
		keys[k] = struct{}{}
		if s.Population < 0 {
			return fmt.Errorf("%w: street %s has negative population %d", ErrInvalidInput, s.Key(), s.Population)
		}
		if !finite(s.X) || !finite(s.Y) {
			return fmt.Errorf("%w: street %s has invalid coordinates", ErrInvalidInput, s.Key())
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

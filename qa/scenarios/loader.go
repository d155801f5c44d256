package scenarios

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/maskalloc/core/model"
)

// Expected lists the checks of a scenario. Empty fields are not checked.
type Expected struct {
	// InitialOwner maps street keys (name_zip) to the nearest pharmacy ID.
	InitialOwner map[string]string `yaml:"initial_owner,omitempty"`
	InitialLoads map[string]int    `yaml:"initial_loads,omitempty"`
	FinalLoads   map[string]int    `yaml:"final_loads,omitempty"`
	Moves        *int              `yaml:"moves,omitempty"`
	// MaxStdDev bounds the standard deviation of the final loads.
	MaxStdDev *float64 `yaml:"max_stddev,omitempty"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Coeff       float64          `yaml:"coeff"`
	Rounds      int              `yaml:"rounds"`
	Pharmacies  []model.Pharmacy `yaml:"pharmacies"`
	Streets     []model.Street   `yaml:"streets"`
	Expected    Expected         `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	if sc.Coeff == 0 {
		return nil, fmt.Errorf("scenario %s: coeff is required", sc.Name)
	}
	return &sc, nil
}

// LoadDir loads every .yaml file of dir in lexical order.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		out = append(out, sc)
	}
	return out, nil
}

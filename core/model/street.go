package model

// Street is a street segment carrying the number of inhabitants to serve.
type Street struct {
	Name       string  `json:"rue" yaml:"name"`
	Zip        string  `json:"cp" yaml:"zip"`
	Population int     `json:"n" yaml:"population"`
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
}

// Key identifies the street within a city. Two streets sharing a name in
// different postal codes are distinct.
func (s Street) Key() string {
	return s.Name + "_" + s.Zip
}

// Located reports whether the street carries coordinates. The geocoding layer
// leaves unresolved streets at the origin.
func (s Street) Located() bool {
	return s.X != 0 && s.Y != 0
}

package model

import "fmt"

// Pharmacy is a facility receiving face masks for the streets assigned to it.
type Pharmacy struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Descr string  `json:"descr" yaml:"descr"` // postal address, used as label
	X     float64 `json:"x" yaml:"x"`         // projected easting in metres
	Y     float64 `json:"y" yaml:"y"`         // projected northing in metres
}

// String returns a short human-readable representation of the pharmacy.
func (p Pharmacy) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}

// DistanceSquared returns the squared euclidean distance between the pharmacy
// and the given point.
func (p Pharmacy) DistanceSquared(x, y float64) float64 {
	dx := p.X - x
	dy := p.Y - y
	return dx*dx + dy*dy
}

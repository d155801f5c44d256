package allocation

import (
	"fmt"
	"math"
)

const (
	// DefaultCoeff is the default rebalancing pressure multiplier.
	DefaultCoeff = 1.5
	// DefaultRounds is the default rebalancing round budget.
	DefaultRounds = 100
	// MaxRounds bounds the round budget; a round costs O(F*(F+D)).
	MaxRounds = 100000
)

// Config defines the rebalancing parameters.
type Config struct {
	// Coeff scales the mean load to obtain the target load. Pharmacies above
	// the target never receive streets.
	Coeff float64 `json:"coeff"`
	// Rounds is the number of rebalancing rounds. Zero keeps the nearest
	// assignment untouched.
	Rounds int `json:"rounds"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{Coeff: DefaultCoeff, Rounds: DefaultRounds}
}

// Validate checks the parameters.
func (c Config) Validate() error {
	if c.Coeff <= 0 || math.IsNaN(c.Coeff) || math.IsInf(c.Coeff, 0) {
		return fmt.Errorf("%w: coeff must be a positive number, got %v", ErrInvalidConfig, c.Coeff)
	}
	if c.Rounds < 0 || c.Rounds > MaxRounds {
		return fmt.Errorf("%w: rounds must be within [0, %d], got %d", ErrInvalidConfig, MaxRounds, c.Rounds)
	}
	return nil
}

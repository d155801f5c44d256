package allocation

import "errors"

var (
	// ErrInvalidConfig is returned when the allocation parameters are out of range.
	ErrInvalidConfig = errors.New("invalid allocation config")
	// ErrInconsistentPartition reports a broken membership or load invariant.
	ErrInconsistentPartition = errors.New("inconsistent partition")
)

package ingest

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrDuplicateStreet   = errors.New("duplicate street")
	ErrDuplicateFacility = errors.New("duplicate pharmacy")
	ErrInvalidInput      = errors.New("invalid input")
)

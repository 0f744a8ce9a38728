package models

import "errors"

// ValidationError marks a structurally invalid raw record. It is
// recoverable: the record is dropped and the run continues.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ErrListingNotFound indicates no listing matches the natural key.
var ErrListingNotFound = errors.New("listing not found")

// ErrDuplicateKey indicates a unique constraint violation, i.e. a
// concurrent run created the same (source, external_id) between our
// lookup and insert.
var ErrDuplicateKey = errors.New("duplicate key")

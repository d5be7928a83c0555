package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a load record is not in the catalog.
	ErrNotFound = errors.New("load record not found")

	// ErrMissingID is returned when a record without an ID is stored.
	ErrMissingID = errors.New("load record has no id")
)

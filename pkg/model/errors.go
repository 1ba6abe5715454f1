package model

import "errors"

var (
	// ErrNotFound is returned if a driver, session or session field does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousLookup is returned if a lookup yields more than one match.
	ErrAmbiguousLookup = errors.New("ambiguous lookup")
	// ErrInvalidSelection is returned for invalid lap/time range selections.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrStoreTimeout is returned if the store did not answer in time.
	ErrStoreTimeout = errors.New("store timeout")
	// ErrStoreUnavailable is returned if the store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

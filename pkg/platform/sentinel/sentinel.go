package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: no row matches the lookup
//   - ErrAlreadyUsed: a unique key (document number) is already taken
//   - ErrInvalidState: the row is not in a state that allows the write
//   - ErrUnavailable: a backing system could not be reached
//
// For validation failures use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

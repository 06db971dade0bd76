package tracker

import "errors"

var (
	// ErrNotFound reports a mutation addressing an id that is not in
	// the working set. Never silent: callers must be able to tell a
	// no-op from success.
	ErrNotFound = errors.New("technology not found")

	// ErrReadOnly reports a mutation attempted in an ephemeral session.
	ErrReadOnly = errors.New("session is read-only")

	// ErrNotCustom reports an edit of a catalog-derived technology.
	// Only user-authored entries may be edited.
	ErrNotCustom = errors.New("technology is not user-authored")

	// ErrInvalid reports a mutation argument outside the valid enums.
	ErrInvalid = errors.New("invalid value")

	// ErrPersist reports that the in-memory mutation succeeded but the
	// durable write failed. Working state now diverges from storage;
	// callers should warn and may retry.
	ErrPersist = errors.New("changes may not be saved")
)

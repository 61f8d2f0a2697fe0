package upstream

import "errors"

var (
	// ErrInvalidPath is returned for upstream paths that cannot be joined to the base URL.
	ErrInvalidPath = errors.New("invalid upstream path")

	// ErrUnreachable is returned when no response was received from the upstream.
	ErrUnreachable = errors.New("upstream unreachable")

	// ErrBodyTooLarge is returned when the upstream body exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("upstream body too large")
)

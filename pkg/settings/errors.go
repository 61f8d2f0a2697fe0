package settings

import "errors"

var (
	// ErrUnknownField is returned when Set names a field that does not exist.
	ErrUnknownField = errors.New("unknown settings field")

	// ErrInvalidValue is returned when Set receives a value outside the field's domain.
	ErrInvalidValue = errors.New("invalid settings value")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("database error")
)

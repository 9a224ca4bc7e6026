package record

import "errors"

var (
	// ErrNoSuchVersion is returned when a subset has no version at the requested position or number.
	ErrNoSuchVersion = errors.New("version not found")
	// ErrUnknownPlaceholder is returned by Expand for a {key} with no value.
	ErrUnknownPlaceholder = errors.New("invalid dynamic property")
	// ErrInvalidVersionNumber is returned when a version number is fractional or out of range.
	ErrInvalidVersionNumber = errors.New("version number is not a whole number")
	// ErrUnbalancedBrace is returned by Expand for a single "}" outside a placeholder.
	ErrUnbalancedBrace = errors.New("single '}' encountered in format string")
)

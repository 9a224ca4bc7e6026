package pipeline

import "errors"

var (
	// ErrUnknownFamily is returned when a family is not registered.
	ErrUnknownFamily = errors.New("not a valid family")
	// ErrInstanceExists is returned by Create when the instance set already exists.
	ErrInstanceExists = errors.New("already exists")
	// ErrInvalidTemplate is returned for a {placeholder} with no value.
	ErrInvalidTemplate = errors.New("invalid dynamic property")
	// ErrVersionNotFound is returned when a subset has no version at the requested index.
	ErrVersionNotFound = errors.New("version not found")
	// ErrNoRepresentation is returned when no representation of a version can be loaded.
	ErrNoRepresentation = errors.New("no supported representation")
	// ErrInvalidRecord is returned when a produced record does not match its schema.
	ErrInvalidRecord = errors.New("record does not match schema")
)

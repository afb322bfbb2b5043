package fsstore

import "errors"

var (
	// ErrRootRequired is returned when a store is created without a root directory.
	ErrRootRequired = errors.New("root directory required")

	// ErrUnknownStage is returned for a stage with no file pattern.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrNilLogger is returned when WithLogger is given a nil logger.
	ErrNilLogger = errors.New("logger cannot be nil")
)

package pipeline

import "errors"

var (
	// ErrSourceRequired is returned when a record source is not provided.
	ErrSourceRequired = errors.New("record source required")

	// ErrWriterRequired is returned when a snapshot writer is not provided.
	ErrWriterRequired = errors.New("snapshot writer required")

	// ErrClassifierRequired is returned when a classifier is not provided.
	ErrClassifierRequired = errors.New("classifier required")

	// ErrEventRequired is returned when Run is called with a blank event description.
	ErrEventRequired = errors.New("event description required")

	// ErrRecordFailed wraps a single record's classification failure.
	ErrRecordFailed = errors.New("record classification failed")

	// ErrBranchFailed wraps a platform branch that could not complete.
	ErrBranchFailed = errors.New("platform branch failed")

	// ErrPersistFailed wraps a snapshot write failure.
	ErrPersistFailed = errors.New("persist failed")
)

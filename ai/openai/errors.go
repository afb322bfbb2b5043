package openai

import "errors"

var (
	// ErrConfigRequired is returned when NewProvider is given a nil config.
	ErrConfigRequired = errors.New("ai config required")

	// ErrNilLogger is returned when WithLogger is given a nil logger.
	ErrNilLogger = errors.New("logger cannot be nil")
)

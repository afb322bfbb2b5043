package ai

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("ai config invalid")

	// ErrUnparseable is returned when no parse strategy accepts a model response.
	ErrUnparseable = errors.New("model response could not be parsed")

	// ErrEmptyResponse is returned when the model returns no choices.
	ErrEmptyResponse = errors.New("model returned no choices")
)

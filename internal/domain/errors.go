package domain

import "errors"

var (
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownBackend signals an unsupported storage backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

package tui

import "errors"

// ErrMissingEngine is returned when the sync engine is not provided.
var ErrMissingEngine = errors.New("tui: sync engine is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

package tools

import "errors"

// Tool registry errors.
var (
	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNameEmpty is returned when a tool definition has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolNil is returned when registering a nil tool.
	ErrToolNil = errors.New("tool cannot be nil")

	// ErrToolAlreadyRegistered is returned when registering a duplicate.
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

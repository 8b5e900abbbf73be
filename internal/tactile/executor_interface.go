package tactile

import (
	"context"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command and returns a comprehensive result.
	// A command that starts and exits non-zero is not an error; the returned
	// error is reserved for commands that could not be attempted at all.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)

	// Capabilities returns what this executor supports.
	Capabilities() ExecutorCapabilities

	// Validate checks if a command can be executed by this executor.
	Validate(cmd Command) error
}

var _ Executor = (*DirectExecutor)(nil)

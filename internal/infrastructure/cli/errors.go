package cli

import (
	"errors"
	"fmt"

	infraai "github.com/felixgeelhaar/smarttodo/pkg/ai"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/task"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var validationErr *task.ValidationError
	if errors.As(err, &validationErr) {
		return NewCLIError("invalid input", fmt.Sprintf("Check the value of '%s'", validationErr.Field), err)
	}

	var transErr *task.TransitionError
	if errors.As(err, &transErr) {
		return NewCLIError(
			"status change not allowed",
			fmt.Sprintf("Task '%s' is '%s'; tasks move between pending, in_progress and completed", transErr.TaskID, transErr.From),
			err,
		)
	}

	switch {
	case errors.Is(err, task.ErrNotFound):
		return NewCLIError("record not found", "Check the ID and the --root workspace", err)
	case errors.Is(err, task.ErrDuplicateName):
		return NewCLIError("category already exists", "Pick a different category name", err)
	case errors.Is(err, infraai.ErrNotConfigured):
		return NewCLIError("AI provider not configured", "Export the provider API key, or set ai.provider to none in .smarttodo/config.yaml", err)
	}

	return err
}

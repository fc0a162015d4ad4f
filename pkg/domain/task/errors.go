package task

import (
	"errors"
	"fmt"
)

// Domain errors for the record store.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateName indicates a category name that is already taken.
	ErrDuplicateName = errors.New("category name already exists")

	// ErrInvalid indicates a record that fails validation.
	ErrInvalid = errors.New("invalid record")

	// ErrInvalidTransition indicates the requested status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is allows errors.Is to match ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// TransitionError provides details about an invalid status change.
type TransitionError struct {
	TaskID string
	From   Status
	To     Status
	Event  string
}

func (e *TransitionError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("task %s cannot move from %s to %s", e.TaskID, e.From, e.To)
	}
	return fmt.Sprintf("the action '%s' is not allowed while task %s is '%s'", e.Event, e.TaskID, e.From)
}

// Is allows errors.Is to match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// Is allows errors.Is to match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

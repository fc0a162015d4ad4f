package suggestion

import "errors"

var (
	// ErrTitleRequired indicates a request without a task title.
	ErrTitleRequired = errors.New("task title is required")

	// ErrUnusablePayload indicates an inference response that cannot be turned
	// into a suggestion.
	ErrUnusablePayload = errors.New("unusable suggestion payload")
)

// PayloadError describes why an inference response was rejected.
type PayloadError struct {
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return "unusable suggestion payload: " + e.Reason + ": " + e.Err.Error()
	}
	return "unusable suggestion payload: " + e.Reason
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ErrUnusablePayload.
func (e *PayloadError) Is(target error) bool {
	return target == ErrUnusablePayload
}

package task

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Status is the lifecycle state of a task.
type Status string

// Machine state IDs stay untyped so they convert to statekit.StateID.
const (
	statePending    = "pending"
	stateInProgress = "in_progress"
	stateCompleted  = "completed"
)

const (
	StatusPending    Status = statePending
	StatusInProgress Status = stateInProgress
	StatusCompleted  Status = stateCompleted
)

// Transition events.
const (
	EventStart    = "start"
	EventComplete = "complete"
	EventStop     = "stop"
	EventReopen   = "reopen"
	EventResume   = "resume"
)

// ParseStatus validates a status string. Empty means pending.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusPending, nil
	case StatusPending, StatusInProgress, StatusCompleted:
		return Status(s), nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// IsOpen reports whether work on the task is still outstanding.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// eventFor maps a requested status change to the event that performs it.
var eventFor = map[Status]map[Status]string{
	StatusPending: {
		StatusInProgress: EventStart,
		StatusCompleted:  EventComplete,
	},
	StatusInProgress: {
		StatusPending:   EventStop,
		StatusCompleted: EventComplete,
	},
	StatusCompleted: {
		StatusPending:    EventReopen,
		StatusInProgress: EventResume,
	},
}

type statusContext struct {
	TaskID string
}

// StatusMachine drives a single task through its lifecycle.
type StatusMachine struct {
	taskID      string
	interpreter *statekit.Interpreter[statusContext]
}

// NewStatusMachine starts a machine at the given status.
func NewStatusMachine(taskID string, initial Status) (*StatusMachine, error) {
	if initial == "" {
		initial = StatusPending
	}

	builder := statekit.NewMachine[statusContext]("task-status").
		WithInitial(statekit.StateID(initial)).
		WithContext(statusContext{TaskID: taskID})

	builder.State(statePending).
		On(EventStart).Target(stateInProgress).
		On(EventComplete).Target(stateCompleted).
		Done()

	builder.State(stateInProgress).
		On(EventComplete).Target(stateCompleted).
		On(EventStop).Target(statePending).
		Done()

	builder.State(stateCompleted).
		On(EventReopen).Target(statePending).
		On(EventResume).Target(stateInProgress).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build status machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StatusMachine{taskID: taskID, interpreter: interpreter}, nil
}

// Current returns the machine's status.
func (m *StatusMachine) Current() Status {
	return Status(m.interpreter.State().Value)
}

// Fire applies an event. Events that are not valid in the current status
// leave it unchanged and return a TransitionError.
func (m *StatusMachine) Fire(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if m.Current() != before {
		return nil
	}
	return &TransitionError{TaskID: m.taskID, From: before, Event: event}
}

// MoveTo changes the status to target through the matching event.
// Moving to the current status is a no-op.
func (m *StatusMachine) MoveTo(target Status) error {
	from := m.Current()
	if from == target {
		return nil
	}
	event, ok := eventFor[from][target]
	if !ok {
		return &TransitionError{TaskID: m.taskID, From: from, To: target}
	}
	return m.Fire(event)
}

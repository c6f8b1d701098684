package domain

import "errors"

var (
	// ErrLeadNotFound is returned when the referenced lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrTaskNotFound is returned when the referenced task does not exist
	// or belongs to a different lead.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTransactionConflict is returned when another write to the same lead
	// committed first. Retrying with a fresh read resolves it.
	ErrTransactionConflict = errors.New("concurrent update to lead")
	// ErrInvalidInteractionShape is returned when the fields required by an
	// interaction's outcome are missing or malformed.
	ErrInvalidInteractionShape = errors.New("invalid interaction shape")
	// ErrLeadArchived is returned when a write targets an archived lead's task.
	ErrLeadArchived = errors.New("lead is archived")
)

// ErrTaskCompleted is returned when acknowledging a task that is already closed.
var ErrTaskCompleted = errors.New("task already completed")

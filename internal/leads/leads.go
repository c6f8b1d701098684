// Package leads provides lead management functionality.
// This file defines the public API of the leads bounded context.
// Only types and interfaces defined here should be imported by other domains.
package leads

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the minimal view of a task that other domains may read.
type TaskStatus struct {
	TaskID      uuid.UUID
	LeadID      uuid.UUID
	LeadName    string
	Description string
	DueDate     time.Time
	// Open is false once the task is completed or its lead archived.
	Open bool
}

// TaskLookup resolves a task for reminder delivery.
// Other domains should depend on this interface, not on concrete implementations.
type TaskLookup interface {
	LookupTask(ctx context.Context, taskID uuid.UUID) (TaskStatus, error)
}

// Note: The full management service is intended for use within the HTTP
// handler layer and the operator CLI only. Other domains should use the
// minimal interfaces above or define their own for the specific operations
// they need.

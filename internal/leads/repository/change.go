package repository

import (
	"errors"
	"time"

	"lead_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the lead does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrTaskNotFound is returned when the task does not exist for the lead.
	ErrTaskNotFound = errors.New("task not found")
	// ErrConflict is returned when the lead changed since it was read, or when
	// a second open task would be created for it.
	ErrConflict = errors.New("lead was modified concurrently")
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// Change is the complete write for one lead aggregate. Commit applies it in
// a single transaction in this order:
//
//  1. insert Lead (Create) or update it if its version is still ExpectedVersion
//  2. complete CompleteTaskID
//  3. append Interaction
//  4. complete every other open task of the lead and insert NewTask
//
// Any failure rolls back every step.
type Change struct {
	Lead            domain.Lead
	Create          bool
	ExpectedVersion int
	Interaction     *domain.Interaction
	CompleteTaskID  *uuid.UUID
	NewTask         *domain.Task
	// At stamps completed_at on tasks closed by this change.
	At time.Time
}

// ListLeadsParams filters ListLeads. Results are ordered by last interaction,
// newest first.
type ListLeadsParams struct {
	Status *domain.LeadStatus
	Limit  int
	Offset int
}

// TaskFilter narrows ListTasks. Results are ordered by due date.
type TaskFilter struct {
	LeadID          *uuid.UUID
	Completed       *bool
	Segment         *domain.Segment
	ActiveLeadsOnly bool
}

// TaskLead is a task joined with the lead fields the agenda shows.
type TaskLead struct {
	Task                  domain.Task
	LeadName              string
	LeadStatus            domain.LeadStatus
	LeadLastInteractionAt time.Time
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

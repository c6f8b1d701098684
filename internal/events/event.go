// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"lead_pipeline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after a lead and its first follow-up are stored.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Name   string    `json:"name"`
	Course string    `json:"course"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// InteractionLogged is published after an engagement or touchpoint is committed.
type InteractionLogged struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	LeadName        string    `json:"leadName"`
	InteractionID   uuid.UUID `json:"interactionId"`
	InteractionType string    `json:"interactionType"`
	PreviousScore   int       `json:"previousScore"`
	NewScore        int       `json:"newScore"`
	Segment         string    `json:"segment"`
}

func (e InteractionLogged) EventName() string { return "leads.interaction.logged" }

// FollowUpScheduled is published whenever a new open task replaces the
// previous one for a lead.
type FollowUpScheduled struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	LeadName    string    `json:"leadName"`
	TaskID      uuid.UUID `json:"taskId"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	Segment     string    `json:"segment"`
}

func (e FollowUpScheduled) EventName() string { return "leads.task.scheduled" }

// TaskCompleted is published when a task is completed by user action.
type TaskCompleted struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	TaskID      uuid.UUID `json:"taskId"`
	Description string    `json:"description"`
}

func (e TaskCompleted) EventName() string { return "leads.task.completed" }

// LeadArchived is published when the final follow-up closes a lead.
type LeadArchived struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	LeadName string    `json:"leadName"`
	Score    int       `json:"score"`
}

func (e LeadArchived) EventName() string { return "leads.lead.archived" }

// LeadDetailsUpdated is published after note, traits or insights change.
type LeadDetailsUpdated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
}

func (e LeadDetailsUpdated) EventName() string { return "leads.lead.details_updated" }

// =============================================================================
// Scheduler Events
// =============================================================================

// TaskDue is published by the reminder worker when a still-open task reaches
// its reminder time.
type TaskDue struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	LeadName    string    `json:"leadName"`
	TaskID      uuid.UUID `json:"taskId"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
}

func (e TaskDue) EventName() string { return "scheduler.task.due" }

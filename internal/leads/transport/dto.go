package transport

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs
type CreateLeadRequest struct {
	Name   string   `json:"name" validate:"required,trimmed_min=2,max=120"`
	Phone  string   `json:"phone" validate:"required,min=10,max=32"`
	Course string   `json:"course" validate:"required,trimmed_min=3,max=120"`
	Traits []string `json:"traits,omitempty" validate:"max=20,dive,max=60"`
	Note   string   `json:"note,omitempty" validate:"max=4000"`
}

// LogInteractionRequest carries one engagement or touchpoint. Signals and the
// outcome are only read for Engagement.
type LogInteractionRequest struct {
	Type          string `json:"type" validate:"required,oneof=Engagement Touchpoint Creation"`
	Interest      string `json:"interest,omitempty" validate:"omitempty,oneof=Love High Unsure Low Hate"`
	Intent        string `json:"intent,omitempty" validate:"omitempty,oneof=High Neutral Low"`
	Engagement    string `json:"engagement,omitempty" validate:"omitempty,oneof=Positive Neutral Negative"`
	Outcome       string `json:"outcome,omitempty" validate:"omitempty,oneof=Demo Visit PayLink FollowLater NeedsInfo"`
	OutcomeDetail string `json:"outcomeDetail,omitempty" validate:"max=1000"`
	Notes         string `json:"notes,omitempty" validate:"max=4000"`
}

// CompleteTaskRequest closes a task. Acknowledge records the reminder as a
// touchpoint and schedules the next follow-up instead of a plain completion.
type CompleteTaskRequest struct {
	IsTerminalFollowUp bool `json:"isTerminalFollowUp"`
	Acknowledge        bool `json:"acknowledge"`
}

type UpdateLeadDetailsRequest struct {
	Note     *string   `json:"note,omitempty" validate:"omitempty,max=4000"`
	Traits   *[]string `json:"traits,omitempty" validate:"omitempty,max=20,dive,max=60"`
	Insights *[]string `json:"insights,omitempty" validate:"omitempty,max=50,dive,max=500"`
}

type ListLeadsRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=Active Archived"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// Response DTOs
type LeadResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Course            string    `json:"course"`
	Score             int       `json:"score"`
	Status            string    `json:"status"`
	Segment           string    `json:"segment"`
	LastInteractionAt time.Time `json:"lastInteractionAt"`
	Traits            []string  `json:"traits"`
	Insights          []string  `json:"insights"`
	Note              string    `json:"note"`
	Responsiveness    string    `json:"responsiveness,omitempty"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type InteractionResponse struct {
	ID               uuid.UUID `json:"id"`
	LeadID           uuid.UUID `json:"leadId"`
	Date             time.Time `json:"date"`
	Type             string    `json:"type"`
	Interest         string    `json:"interest,omitempty"`
	Intent           string    `json:"intent,omitempty"`
	Engagement       string    `json:"engagement,omitempty"`
	Outcome          string    `json:"outcome,omitempty"`
	OutcomeDetail    string    `json:"outcomeDetail,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	InteractionScore int       `json:"interactionScore"`
	PreviousScore    int       `json:"previousScore"`
	NewScore         int       `json:"newScore"`
	FollowUpDay      *int      `json:"followUpDay,omitempty"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"dueDate"`
	Segment     string     `json:"segment"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	FollowUpDay *int       `json:"followUpDay,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type LeadDetailResponse struct {
	Lead         LeadResponse          `json:"lead"`
	OpenTask     *TaskResponse         `json:"openTask"`
	Interactions []InteractionResponse `json:"interactions"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
}

type InteractionListResponse struct {
	Items []InteractionResponse `json:"items"`
}

type LogInteractionResponse struct {
	NewScore    int                 `json:"newScore"`
	NewSegment  string              `json:"newSegment"`
	NewTask     *TaskResponse       `json:"newTask"`
	Interaction InteractionResponse `json:"interaction"`
}

type NextFollowUpResponse struct {
	Day         int       `json:"day"`
	DueDate     time.Time `json:"dueDate"`
	Description string    `json:"description"`
}

type AgendaTaskResponse struct {
	Task           TaskResponse `json:"task"`
	LeadName       string       `json:"leadName"`
	Responsiveness string       `json:"responsiveness"`
}

type AgendaTaskListResponse struct {
	Items []AgendaTaskResponse `json:"items"`
}

type AgendaEventResponse struct {
	Task      TaskResponse `json:"task"`
	LeadName  string       `json:"leadName"`
	EventType string       `json:"eventType"`
}

type AgendaEventsResponse struct {
	Today    []AgendaEventResponse `json:"today"`
	Tomorrow []AgendaEventResponse `json:"tomorrow"`
	Later    []AgendaEventResponse `json:"later"`
}

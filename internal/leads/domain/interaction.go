package domain

import (
	"time"

	"github.com/google/uuid"
)

// Signals are the qualitative readings of one engagement.
type Signals struct {
	Interest   Interest
	Intent     Intent
	Engagement Engagement
}

// Interaction is an immutable entry in a lead's engagement log.
// Touchpoint and Creation entries carry no signals.
type Interaction struct {
	ID     uuid.UUID
	LeadID uuid.UUID
	Date   time.Time
	Type   InteractionType
	Signals
	Outcome          Outcome
	OutcomeDetail    string
	Notes            string
	InteractionScore int
	PreviousScore    int
	NewScore         int
	// FollowUpDay is set when the entry acknowledges a standard follow-up.
	FollowUpDay *int
}

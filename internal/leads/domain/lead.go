package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// InitialScore is the score every new lead starts with.
	InitialScore = 50
	MinScore     = 0
	MaxScore     = 100
)

// Lead is a prospect tracked through the pipeline.
type Lead struct {
	ID                uuid.UUID
	Name              string
	Phone             string
	Course            string
	Score             int
	Status            LeadStatus
	Segment           Segment
	LastInteractionAt time.Time
	Traits            []string
	Insights          []string
	Note              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	// Version increments on every committed write and guards concurrent updates.
	Version int
}

// IsArchived reports whether the lead reached its terminal state.
func (l Lead) IsArchived() bool {
	return l.Status == LeadStatusArchived
}

// NewLead returns an Active lead in Standard Follow-up with the initial score.
func NewLead(id uuid.UUID, name, phone, course string, traits []string, note string, now time.Time) Lead {
	if traits == nil {
		traits = []string{}
	}
	return Lead{
		ID:                id,
		Name:              name,
		Phone:             phone,
		Course:            course,
		Score:             InitialScore,
		Status:            LeadStatusActive,
		Segment:           SegmentStandardFollowUp,
		LastInteractionAt: now,
		Traits:            traits,
		Insights:          []string{},
		Note:              note,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Package lifecycle is the lead lifecycle engine. Given a lead, a new
// interaction and the lead's history it decides the new segment and the
// single follow-up task, and assembles the change set that must be committed
// atomically.
package lifecycle

import (
	"fmt"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/followup"
)

// Decision is the segment and follow-up task chosen for an interaction.
type Decision struct {
	Segment     domain.Segment
	Description string
	Due         time.Time
	// FollowUpDay is set only by the standard cadence rule.
	FollowUpDay *int
}

// Decide applies the ordered rule list; the first match wins.
// Touchpoints and Creation entries always take the standard cadence.
func Decide(lead domain.Lead, in Input, history []domain.Interaction, now time.Time) Decision {
	if in.Type != domain.InteractionEngagement {
		return standardFollowUp(lead, history, now)
	}

	switch in.Outcome {
	case domain.OutcomeDemo, domain.OutcomeVisit:
		return Decision{
			Segment:     domain.SegmentAwaitingEvent,
			Description: fmt.Sprintf("%s with %s", in.Outcome, lead.Name),
			Due:         eventDate(in.OutcomeDetail, now),
		}
	case domain.OutcomePayLink:
		return Decision{
			Segment:     domain.SegmentPaymentPending,
			Description: fmt.Sprintf("Close %s: follow up on payment link", lead.Name),
			Due:         now.AddDate(0, 0, 1),
		}
	case domain.OutcomeFollowLater:
		return Decision{
			Segment:     domain.SegmentStandardFollowUp,
			Description: fmt.Sprintf("Follow up with %s", lead.Name),
			Due:         eventDate(in.OutcomeDetail, now),
		}
	case domain.OutcomeNeedsInfo:
		return Decision{
			Segment:     domain.SegmentActionRequired,
			Description: in.OutcomeDetail,
			Due:         now,
		}
	case domain.OutcomeNone:
	}

	if needsNurturing(in.Signals) {
		return Decision{
			Segment:     domain.SegmentNeedsNurturing,
			Description: fmt.Sprintf("Nurture %s: send value content", lead.Name),
			Due:         now.AddDate(0, 0, 2),
		}
	}

	return standardFollowUp(lead, history, now)
}

func needsNurturing(s domain.Signals) bool {
	interested := s.Interest == domain.InterestUnsure || s.Interest == domain.InterestHigh
	uncommitted := s.Intent == domain.IntentNeutral || s.Intent == domain.IntentLow
	return interested && uncommitted
}

func standardFollowUp(lead domain.Lead, history []domain.Interaction, now time.Time) Decision {
	step := followup.Next(history, now)
	day := step.Day
	return Decision{
		Segment:     domain.SegmentStandardFollowUp,
		Description: FollowUpDescription(lead.Name, day),
		Due:         step.Due,
		FollowUpDay: &day,
	}
}

// FollowUpDescription renders the task text of a cadence step.
func FollowUpDescription(name string, day int) string {
	return fmt.Sprintf("Follow up with %s (Day %d)", name, day)
}

// eventDate falls back to now for details Validate would have rejected.
func eventDate(detail string, now time.Time) time.Time {
	if t, ok := ParseEventDate(detail, now.Location()); ok {
		return t
	}
	return now
}

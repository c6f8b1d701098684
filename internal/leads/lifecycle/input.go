package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
)

// eventDateLayouts are accepted for date-valued outcome details, most
// specific first. Layouts without a zone are read in the caller's location.
var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Input is one interaction as submitted by a caller.
type Input struct {
	Type          domain.InteractionType
	Signals       domain.Signals
	Outcome       domain.Outcome
	OutcomeDetail string
	Notes         string
	// FollowUpDay marks a touchpoint that acknowledges a standard follow-up.
	FollowUpDay *int
}

// ShapeError explains why an interaction was rejected. It unwraps to
// domain.ErrInvalidInteractionShape.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s %s", domain.ErrInvalidInteractionShape, e.Field, e.Reason)
}

func (e *ShapeError) Unwrap() error { return domain.ErrInvalidInteractionShape }

// Validate checks the fields each interaction type and outcome require.
// It runs before any write; Decide and Apply assume a valid Input.
func (in Input) Validate(loc *time.Location) error {
	switch in.Type {
	case domain.InteractionEngagement:
		return in.validateEngagement(loc)
	case domain.InteractionTouchpoint, domain.InteractionCreation:
		if in.Outcome != domain.OutcomeNone {
			return &ShapeError{Field: "outcome", Reason: "is only allowed on engagements"}
		}
		return nil
	}
	return &ShapeError{Field: "type", Reason: fmt.Sprintf("%q is not an interaction type", in.Type)}
}

func (in Input) validateEngagement(loc *time.Location) error {
	if _, err := domain.ParseInterest(string(in.Signals.Interest)); err != nil {
		return &ShapeError{Field: "interest", Reason: "is required"}
	}
	if _, err := domain.ParseIntent(string(in.Signals.Intent)); err != nil {
		return &ShapeError{Field: "intent", Reason: "is required"}
	}
	if _, err := domain.ParseEngagement(string(in.Signals.Engagement)); err != nil {
		return &ShapeError{Field: "engagement", Reason: "is required"}
	}
	if _, err := domain.ParseOutcome(string(in.Outcome)); err != nil {
		return &ShapeError{Field: "outcome", Reason: err.Error()}
	}

	detail := strings.TrimSpace(in.OutcomeDetail)
	if in.Outcome.RequiresDetail() && detail == "" {
		return &ShapeError{Field: "outcomeDetail", Reason: fmt.Sprintf("is required for %s", in.Outcome)}
	}
	if in.Outcome.RequiresDate() {
		if _, ok := ParseEventDate(detail, loc); !ok {
			return &ShapeError{Field: "outcomeDetail", Reason: fmt.Sprintf("must be a date for %s", in.Outcome)}
		}
	}
	return nil
}

// ParseEventDate reads a date-valued outcome detail.
func ParseEventDate(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

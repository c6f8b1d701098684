package domain

import "fmt"

// LeadStatus is the lifecycle state of a lead. Archived is terminal.
type LeadStatus string

const (
	LeadStatusActive   LeadStatus = "Active"
	LeadStatusArchived LeadStatus = "Archived"
)

// ParseLeadStatus validates a raw status value.
func ParseLeadStatus(raw string) (LeadStatus, error) {
	switch s := LeadStatus(raw); s {
	case LeadStatusActive, LeadStatusArchived:
		return s, nil
	}
	return "", fmt.Errorf("unknown lead status %q", raw)
}

// Segment is the pipeline bucket that governs what follow-up applies.
type Segment string

const (
	SegmentStandardFollowUp Segment = "Standard Follow-up"
	SegmentAwaitingEvent    Segment = "Awaiting Event"
	SegmentActionRequired   Segment = "Action Required"
	SegmentNeedsNurturing   Segment = "Needs Nurturing"
	SegmentPaymentPending   Segment = "Payment Pending"
	SegmentOnHold           Segment = "On Hold"
	SegmentNeedsPersuasion  Segment = "Needs Persuasion"
	SegmentSpecialFollowUp  Segment = "Special Follow-up"
)

// ParseSegment validates a raw segment value.
func ParseSegment(raw string) (Segment, error) {
	switch s := Segment(raw); s {
	case SegmentStandardFollowUp, SegmentAwaitingEvent, SegmentActionRequired, SegmentNeedsNurturing,
		SegmentPaymentPending, SegmentOnHold, SegmentNeedsPersuasion, SegmentSpecialFollowUp:
		return s, nil
	}
	return "", fmt.Errorf("unknown segment %q", raw)
}

// InteractionType distinguishes a logged engagement from an automated
// touchpoint and from the lead-creation bootstrap entry.
type InteractionType string

const (
	InteractionEngagement InteractionType = "Engagement"
	InteractionTouchpoint InteractionType = "Touchpoint"
	InteractionCreation   InteractionType = "Creation"
)

// ParseInteractionType validates a raw interaction type.
func ParseInteractionType(raw string) (InteractionType, error) {
	switch t := InteractionType(raw); t {
	case InteractionEngagement, InteractionTouchpoint, InteractionCreation:
		return t, nil
	}
	return "", fmt.Errorf("unknown interaction type %q", raw)
}

// Interest is the prospect's stated interest in the course.
type Interest string

const (
	InterestLove   Interest = "Love"
	InterestHigh   Interest = "High"
	InterestUnsure Interest = "Unsure"
	InterestLow    Interest = "Low"
	InterestHate   Interest = "Hate"
)

// ParseInterest validates a raw interest value.
func ParseInterest(raw string) (Interest, error) {
	switch v := Interest(raw); v {
	case InterestLove, InterestHigh, InterestUnsure, InterestLow, InterestHate:
		return v, nil
	}
	return "", fmt.Errorf("unknown interest %q", raw)
}

// Intent is the prospect's intent to buy.
type Intent string

const (
	IntentHigh    Intent = "High"
	IntentNeutral Intent = "Neutral"
	IntentLow     Intent = "Low"
)

// ParseIntent validates a raw intent value.
func ParseIntent(raw string) (Intent, error) {
	switch v := Intent(raw); v {
	case IntentHigh, IntentNeutral, IntentLow:
		return v, nil
	}
	return "", fmt.Errorf("unknown intent %q", raw)
}

// Engagement is the tone of the conversation.
type Engagement string

const (
	EngagementPositive Engagement = "Positive"
	EngagementNeutral  Engagement = "Neutral"
	EngagementNegative Engagement = "Negative"
)

// ParseEngagement validates a raw engagement value.
func ParseEngagement(raw string) (Engagement, error) {
	switch v := Engagement(raw); v {
	case EngagementPositive, EngagementNeutral, EngagementNegative:
		return v, nil
	}
	return "", fmt.Errorf("unknown engagement %q", raw)
}

// Outcome is a committed next step agreed during an engagement.
// The empty Outcome means none was agreed.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeDemo        Outcome = "Demo"
	OutcomeVisit       Outcome = "Visit"
	OutcomePayLink     Outcome = "PayLink"
	OutcomeFollowLater Outcome = "FollowLater"
	OutcomeNeedsInfo   Outcome = "NeedsInfo"
)

// ParseOutcome validates a raw outcome. An empty string is OutcomeNone.
func ParseOutcome(raw string) (Outcome, error) {
	switch v := Outcome(raw); v {
	case OutcomeNone, OutcomeDemo, OutcomeVisit, OutcomePayLink, OutcomeFollowLater, OutcomeNeedsInfo:
		return v, nil
	}
	return "", fmt.Errorf("unknown outcome %q", raw)
}

// RequiresDetail reports whether the outcome carries a mandatory outcomeDetail.
func (o Outcome) RequiresDetail() bool {
	switch o {
	case OutcomeDemo, OutcomeVisit, OutcomeFollowLater, OutcomeNeedsInfo:
		return true
	case OutcomeNone, OutcomePayLink:
		return false
	}
	return false
}

// RequiresDate reports whether outcomeDetail must be a date.
func (o Outcome) RequiresDate() bool {
	switch o {
	case OutcomeDemo, OutcomeVisit, OutcomeFollowLater:
		return true
	case OutcomeNone, OutcomePayLink, OutcomeNeedsInfo:
		return false
	}
	return false
}

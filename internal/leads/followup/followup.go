// Package followup computes the next step of the standard follow-up cadence
// from a lead's interaction history.
package followup

import (
	"regexp"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
)

var followUpMention = regexp.MustCompile(`(?i)follow[\s-]?up`)

// Step is a position in the cadence with its due date.
type Step struct {
	Day int
	Due time.Time
}

// Next returns the cadence step after the most recent follow-up marker in
// history. Without a marker it starts at day 1; after the final day, or after
// a day that is not in the cadence, it stays on the final day.
func Next(history []domain.Interaction, now time.Time) Step {
	last, ok := LastMarker(history)
	if !ok {
		return stepAt(domain.FollowUpCadence[0], now)
	}

	for i, day := range domain.FollowUpCadence {
		if day == last && i+1 < len(domain.FollowUpCadence) {
			return stepAt(domain.FollowUpCadence[i+1], now)
		}
	}
	return stepAt(domain.FinalFollowUpDay, now)
}

// LastMarker returns the follow-up day recorded by the most recent marked
// interaction. Entries are compared by Date; on equal dates the later slice
// element wins.
func LastMarker(history []domain.Interaction) (int, bool) {
	var (
		found  bool
		day    int
		latest time.Time
	)
	for _, in := range history {
		n, ok := Marker(in)
		if !ok {
			continue
		}
		if !found || !in.Date.Before(latest) {
			found, day, latest = true, n, in.Date
		}
	}
	return day, found
}

// Marker extracts the follow-up day an interaction acknowledges. The
// structured field wins; older entries are read from notes such as
// "Follow up with Alex (Day 3) sent.".
func Marker(in domain.Interaction) (int, bool) {
	if in.FollowUpDay != nil {
		return *in.FollowUpDay, true
	}
	return ParseDay(in.Notes)
}

// ParseDay reads "Day N" out of text that mentions a follow-up.
func ParseDay(text string) (int, bool) {
	if !followUpMention.MatchString(text) {
		return 0, false
	}
	return domain.DayInText(text)
}

func stepAt(day int, now time.Time) Step {
	return Step{Day: day, Due: now.AddDate(0, 0, day)}
}

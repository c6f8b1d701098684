package domain

import "time"

// Responsiveness buckets a lead by how recently it was engaged.
type Responsiveness string

const (
	ResponsivenessHot  Responsiveness = "hot"
	ResponsivenessWarm Responsiveness = "warm"
	ResponsivenessCold Responsiveness = "cold"
)

const (
	hotWindow  = 24 * time.Hour
	warmWindow = 72 * time.Hour
)

// ClassifyResponsiveness returns hot under 24h since the last interaction,
// warm under 72h and cold otherwise, including when it is unknown.
func ClassifyResponsiveness(lastInteractionAt, now time.Time) Responsiveness {
	if lastInteractionAt.IsZero() {
		return ResponsivenessCold
	}
	elapsed := now.Sub(lastInteractionAt)
	switch {
	case elapsed < hotWindow:
		return ResponsivenessHot
	case elapsed < warmWindow:
		return ResponsivenessWarm
	default:
		return ResponsivenessCold
	}
}

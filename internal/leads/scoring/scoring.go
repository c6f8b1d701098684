// Package scoring maps an engagement's qualitative signals to a score delta
// and applies it to a lead's current score.
package scoring

import "lead_pipeline_backend/internal/leads/domain"

// ModelVersion identifies the scoring table. Bump it when the weights change.
const ModelVersion = "signals-v1"

// TouchpointDecay is the fixed score change applied by a touchpoint.
const TouchpointDecay = -2

// Result is the outcome of scoring one interaction.
type Result struct {
	InteractionScore int
	PreviousScore    int
	NewScore         int
}

// Score sums the signal weights and applies them to current.
// Range of InteractionScore is -65..+55; NewScore is clamped to 0..100.
func Score(signals domain.Signals, current int) Result {
	delta := interestWeight(signals.Interest) + intentWeight(signals.Intent) + engagementWeight(signals.Engagement)
	return Result{
		InteractionScore: delta,
		PreviousScore:    current,
		NewScore:         clampScore(current + delta),
	}
}

// Decay applies the touchpoint decay. Like Score, InteractionScore is the
// unclamped delta.
func Decay(current int) Result {
	return Result{
		InteractionScore: TouchpointDecay,
		PreviousScore:    current,
		NewScore:         clampScore(current + TouchpointDecay),
	}
}

// Carry records an interaction that leaves the score unchanged.
func Carry(current int) Result {
	return Result{PreviousScore: current, NewScore: clampScore(current)}
}

func interestWeight(v domain.Interest) int {
	switch v {
	case domain.InterestLove:
		return 20
	case domain.InterestHigh:
		return 10
	case domain.InterestUnsure:
		return -5
	case domain.InterestLow:
		return -15
	case domain.InterestHate:
		return -30
	}
	return 0
}

func intentWeight(v domain.Intent) int {
	switch v {
	case domain.IntentHigh:
		return 25
	case domain.IntentNeutral:
		return 0
	case domain.IntentLow:
		return -20
	}
	return 0
}

func engagementWeight(v domain.Engagement) int {
	switch v {
	case domain.EngagementPositive:
		return 10
	case domain.EngagementNeutral:
		return -5
	case domain.EngagementNegative:
		return -15
	}
	return 0
}

func clampScore(value int) int {
	if value < domain.MinScore {
		return domain.MinScore
	}
	if value > domain.MaxScore {
		return domain.MaxScore
	}
	return value
}

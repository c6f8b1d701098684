package lifecycle

import (
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/followup"
	"lead_pipeline_backend/internal/leads/scoring"

	"github.com/google/uuid"
)

// CreationNotes is recorded on the bootstrap interaction of every lead.
const CreationNotes = "Lead Created"

// IDFunc mints identifiers for new records.
type IDFunc func() uuid.UUID

// Result is everything one interaction changes. The caller commits it as a
// single transaction: append Interaction, replace the lead with Lead, close
// every open task of the lead, then insert Task when it is non-nil.
type Result struct {
	Interaction domain.Interaction
	Lead        domain.Lead
	Task        *domain.Task
	// CompletedTaskID is the task explicitly acknowledged, if any.
	CompletedTaskID *uuid.UUID
}

// Apply scores the interaction, decides the next step and builds the change
// set. It never fails; validate the input first.
func Apply(lead domain.Lead, in Input, history []domain.Interaction, now time.Time, newID IDFunc) Result {
	var score scoring.Result
	switch in.Type {
	case domain.InteractionEngagement:
		score = scoring.Score(in.Signals, lead.Score)
	case domain.InteractionTouchpoint:
		score = scoring.Decay(lead.Score)
	case domain.InteractionCreation:
		score = scoring.Carry(lead.Score)
	}

	interaction := record(lead, in, score, now, newID)
	// The new entry may itself acknowledge a follow-up step.
	decision := Decide(lead, in, append(history[:len(history):len(history)], interaction), now)

	updated := lead
	updated.Score = score.NewScore
	updated.Segment = decision.Segment
	updated.Status = domain.LeadStatusActive
	updated.LastInteractionAt = now
	updated.UpdatedAt = now

	task := &domain.Task{
		ID:          newID(),
		LeadID:      lead.ID,
		Description: decision.Description,
		DueDate:     decision.Due,
		Segment:     decision.Segment,
		FollowUpDay: decision.FollowUpDay,
		CreatedAt:   now,
	}

	return Result{Interaction: interaction, Lead: updated, Task: task}
}

// Acknowledge ticks off an open task as a touchpoint: it records
// "{description} sent." and moves the lead to its next cadence step.
// Acknowledging the terminal follow-up closes the cadence instead: the task is
// completed, the lead archived and no new task created.
func Acknowledge(lead domain.Lead, task domain.Task, history []domain.Interaction, now time.Time, newID IDFunc) Result {
	in := Input{
		Type:        domain.InteractionTouchpoint,
		Notes:       task.Description + " sent.",
		FollowUpDay: acknowledgedDay(task),
	}

	if !task.IsTerminalFollowUp() {
		res := Apply(lead, in, history, now, newID)
		res.CompletedTaskID = &task.ID
		return res
	}

	score := scoring.Decay(lead.Score)
	updated := lead
	updated.Score = score.NewScore
	updated.Status = domain.LeadStatusArchived
	updated.LastInteractionAt = now
	updated.UpdatedAt = now

	return Result{
		Interaction:     record(lead, in, score, now, newID),
		Lead:            updated,
		CompletedTaskID: &task.ID,
	}
}

// Archive marks the lead archived. Used when the terminal follow-up is
// completed directly.
func Archive(lead domain.Lead, now time.Time) domain.Lead {
	lead.Status = domain.LeadStatusArchived
	lead.UpdatedAt = now
	return lead
}

func record(lead domain.Lead, in Input, score scoring.Result, now time.Time, newID IDFunc) domain.Interaction {
	out := domain.Interaction{
		ID:               newID(),
		LeadID:           lead.ID,
		Date:             now,
		Type:             in.Type,
		Notes:            in.Notes,
		InteractionScore: score.InteractionScore,
		PreviousScore:    score.PreviousScore,
		NewScore:         score.NewScore,
		FollowUpDay:      in.FollowUpDay,
	}
	if in.Type == domain.InteractionEngagement {
		out.Signals = in.Signals
		out.Outcome = in.Outcome
		out.OutcomeDetail = in.OutcomeDetail
	}
	return out
}

func acknowledgedDay(task domain.Task) *int {
	if task.FollowUpDay != nil {
		day := *task.FollowUpDay
		return &day
	}
	if day, ok := followup.ParseDay(task.Description); ok {
		return &day
	}
	return nil
}

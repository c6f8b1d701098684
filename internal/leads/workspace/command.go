package workspace

import (
	"context"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/lifecycle"
	"lead_pipeline_backend/internal/leads/management"

	"github.com/google/uuid"
)

// Command is one user action on a lead.
type Command interface {
	Name() string
	applyLocal(s Snapshot, now time.Time) (Snapshot, error)
	persist(ctx context.Context, b Backend, leadID uuid.UUID) error
}

// LogInteraction records an engagement or touchpoint.
type LogInteraction struct {
	Type  domain.InteractionType
	Input management.InteractionInput
}

// Name implements Command.
func (LogInteraction) Name() string { return "log_interaction" }

func (c LogInteraction) applyLocal(s Snapshot, now time.Time) (Snapshot, error) {
	if s.Lead.IsArchived() {
		return s, domain.ErrLeadArchived
	}
	in := lifecycle.Input{
		Type:          c.Type,
		Signals:       c.Input.Signals,
		Outcome:       c.Input.Outcome,
		OutcomeDetail: c.Input.OutcomeDetail,
		Notes:         c.Input.Notes,
	}
	if c.Type == domain.InteractionCreation {
		return s, &lifecycle.ShapeError{Field: "type", Reason: "Creation is recorded when the lead is added"}
	}
	if err := in.Validate(now.Location()); err != nil {
		return s, err
	}
	return applyResult(s, lifecycle.Apply(s.Lead, in, s.Interactions, now, uuid.New)), nil
}

func (c LogInteraction) persist(ctx context.Context, b Backend, leadID uuid.UUID) error {
	_, err := b.LogInteraction(ctx, leadID, c.Input, c.Type)
	return err
}

// CompleteTask closes the open task, archiving the lead when Terminal is set
// or the task is the final follow-up.
type CompleteTask struct {
	TaskID   uuid.UUID
	Terminal bool
}

// Name implements Command.
func (CompleteTask) Name() string { return "complete_task" }

func (c CompleteTask) applyLocal(s Snapshot, now time.Time) (Snapshot, error) {
	if s.Lead.IsArchived() {
		return s, domain.ErrLeadArchived
	}
	// Only the open task may archive; a superseded id never reaches the store.
	if s.OpenTask == nil || s.OpenTask.ID != c.TaskID {
		return s, domain.ErrTaskNotFound
	}
	if c.Terminal || s.OpenTask.IsTerminalFollowUp() {
		s.Lead = lifecycle.Archive(s.Lead, now)
	}
	s.OpenTask = nil
	return s, nil
}

func (c CompleteTask) persist(ctx context.Context, b Backend, leadID uuid.UUID) error {
	return b.CompleteTask(ctx, c.TaskID, leadID, c.Terminal)
}

// AcknowledgeTask ticks off the open task as a touchpoint.
type AcknowledgeTask struct {
	TaskID uuid.UUID
}

// Name implements Command.
func (AcknowledgeTask) Name() string { return "acknowledge_task" }

func (c AcknowledgeTask) applyLocal(s Snapshot, now time.Time) (Snapshot, error) {
	if s.Lead.IsArchived() {
		return s, domain.ErrLeadArchived
	}
	if s.OpenTask == nil || s.OpenTask.ID != c.TaskID {
		return s, domain.ErrTaskNotFound
	}
	return applyResult(s, lifecycle.Acknowledge(s.Lead, *s.OpenTask, s.Interactions, now, uuid.New)), nil
}

func (c AcknowledgeTask) persist(ctx context.Context, b Backend, leadID uuid.UUID) error {
	_, err := b.AcknowledgeTask(ctx, c.TaskID, leadID)
	return err
}

func applyResult(s Snapshot, res lifecycle.Result) Snapshot {
	s.Lead = res.Lead
	s.Interactions = append(s.Interactions, res.Interaction)
	s.OpenTask = res.Task
	return s
}

// Package management is the application service of the leads module. It runs
// the lifecycle engine against the store: every write re-reads the lead
// aggregate, applies the engine and commits the result as one transaction,
// retrying a bounded number of times when another writer got there first.
package management

import (
	"context"
	"errors"
	"strings"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/lifecycle"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/platform/apperr"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/phone"
	"lead_pipeline_backend/platform/sanitize"
	"lead_pipeline_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	opAddLead           = "leads.AddLead"
	opLogInteraction    = "leads.LogInteraction"
	opCompleteTask      = "leads.CompleteTask"
	opAcknowledgeTask   = "leads.AcknowledgeTask"
	opUpdateLeadDetails = "leads.UpdateLeadDetails"
)

// AddLeadInput is the data needed to open a new lead.
type AddLeadInput struct {
	Name   string   `validate:"trimmed_min=2,max=120"`
	Phone  string   `validate:"required,min=10,max=32"`
	Course string   `validate:"trimmed_min=3,max=120"`
	Traits []string `validate:"max=20,dive,max=60"`
	Note   string   `validate:"max=4000"`
}

// InteractionInput is one engagement as entered by a sales rep.
type InteractionInput struct {
	Signals       domain.Signals
	Outcome       domain.Outcome
	OutcomeDetail string
	Notes         string
}

// Outcome is what LogInteraction changed.
type Outcome struct {
	NewScore    int
	NewSegment  domain.Segment
	NewTask     domain.Task
	Interaction domain.Interaction
}

// LeadDetailsUpdate carries the user-editable fields. Nil fields are left as is.
type LeadDetailsUpdate struct {
	Note     *string   `validate:"omitempty,max=4000"`
	Traits   *[]string `validate:"omitempty,max=20,dive,max=60"`
	Insights *[]string `validate:"omitempty,max=50,dive,max=500"`
}

// Service runs lead lifecycle operations.
type Service struct {
	store       repository.Store
	eventBus    events.Bus
	clock       clock.Clock
	phone       *phone.Normalizer
	val         *validator.Validator
	log         *logger.Logger
	maxAttempts int
	newID       lifecycle.IDFunc
}

// New creates the leads application service.
func New(store repository.Store, eventBus events.Bus, clk clock.Clock, val *validator.Validator, cfg config.LeadsConfig, log *logger.Logger) *Service {
	attempts := cfg.GetLeadWriteMaxAttempts()
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		store:       store,
		eventBus:    eventBus,
		clock:       clk,
		phone:       phone.NewNormalizer(cfg.GetDefaultPhoneRegion()),
		val:         val,
		log:         log,
		maxAttempts: attempts,
		newID:       uuid.New,
	}
}

// AddLead opens a lead with the initial score and seeds its Day 1 follow-up
// through a Creation interaction, all in one commit.
func (s *Service) AddLead(ctx context.Context, in AddLeadInput) (domain.Lead, error) {
	in.Name = sanitize.Line(in.Name)
	in.Course = sanitize.Line(in.Course)
	in.Note = sanitize.Text(in.Note)
	in.Traits = sanitize.Lines(in.Traits)
	if err := s.validate(opAddLead, in); err != nil {
		return domain.Lead{}, err
	}

	now := s.clock.Now()
	lead := domain.NewLead(s.newID(), in.Name, s.phone.NormalizeE164(in.Phone), in.Course, in.Traits, in.Note, now)
	res := lifecycle.Apply(lead, lifecycle.Input{Type: domain.InteractionCreation, Notes: lifecycle.CreationNotes}, nil, now, s.newID)

	stored, err := s.store.Commit(ctx, repository.Change{
		Lead:        res.Lead,
		Create:      true,
		Interaction: &res.Interaction,
		NewTask:     res.Task,
		At:          now,
	})
	if err != nil {
		return domain.Lead{}, mapStoreError(opAddLead, err)
	}

	s.log.WithContext(ctx).Info("lead created", "leadId", stored.ID, "course", stored.Course)
	s.eventBus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEventAt(now),
		LeadID:    stored.ID,
		Name:      stored.Name,
		Course:    stored.Course,
	})
	s.publishScheduled(ctx, stored, res.Task)
	return stored, nil
}

// LogInteraction scores an engagement or touchpoint, moves the lead to its new
// segment and replaces its open task. Creation entries are only written by
// AddLead.
func (s *Service) LogInteraction(ctx context.Context, leadID uuid.UUID, input InteractionInput, typ domain.InteractionType) (Outcome, error) {
	in := lifecycle.Input{
		Type:          typ,
		Signals:       input.Signals,
		Outcome:       input.Outcome,
		OutcomeDetail: strings.TrimSpace(input.OutcomeDetail),
		Notes:         sanitize.Text(input.Notes),
	}
	if in.Outcome == domain.OutcomeNeedsInfo {
		in.OutcomeDetail = sanitize.Text(in.OutcomeDetail)
	}
	if typ == domain.InteractionCreation {
		return Outcome{}, shapeError(opLogInteraction, &lifecycle.ShapeError{Field: "type", Reason: "Creation is recorded when the lead is added"})
	}
	if err := in.Validate(s.clock.Now().Location()); err != nil {
		return Outcome{}, shapeError(opLogInteraction, err)
	}

	var res lifecycle.Result
	var stored domain.Lead
	err := s.retry(ctx, leadID, func() error {
		lead, history, err := s.loadAggregate(ctx, leadID)
		if err != nil {
			return err
		}
		if lead.IsArchived() {
			return domain.ErrLeadArchived
		}

		now := s.clock.Now()
		res = lifecycle.Apply(lead, in, history, now, s.newID)
		stored, err = s.store.Commit(ctx, repository.Change{
			Lead:            res.Lead,
			ExpectedVersion: lead.Version,
			Interaction:     &res.Interaction,
			NewTask:         res.Task,
			At:              now,
		})
		return err
	})
	if err != nil {
		return Outcome{}, mapStoreError(opLogInteraction, err)
	}

	s.afterInteraction(ctx, stored, res)
	return Outcome{
		NewScore:    stored.Score,
		NewSegment:  stored.Segment,
		NewTask:     *res.Task,
		Interaction: res.Interaction,
	}, nil
}

// CompleteTask closes a task by user action. When the task is the terminal
// follow-up, either because the caller says so or because the stored task is
// the final cadence step, the lead is archived in the same commit.
func (s *Service) CompleteTask(ctx context.Context, taskID, leadID uuid.UUID, isTerminalFollowUp bool) error {
	var (
		task     domain.Task
		archived bool
		lead     domain.Lead
		noop     bool
	)
	err := s.retry(ctx, leadID, func() error {
		var err error
		lead, err = s.store.GetLead(ctx, leadID)
		if err != nil {
			return err
		}
		task, err = s.loadTask(ctx, taskID, leadID)
		if err != nil {
			return err
		}
		if lead.IsArchived() {
			return domain.ErrLeadArchived
		}

		// A completed task may have been superseded by a newer one and must
		// not drive the lead's lifecycle anymore.
		if task.Completed {
			noop = true
			archived = false
			return nil
		}
		archived = isTerminalFollowUp || task.IsTerminalFollowUp()

		now := s.clock.Now()
		next := lead
		if archived {
			next = lifecycle.Archive(lead, now)
		}
		lead, err = s.store.Commit(ctx, repository.Change{
			Lead:            next,
			ExpectedVersion: lead.Version,
			CompleteTaskID:  &task.ID,
			At:              now,
		})
		return err
	})
	if err != nil {
		return mapStoreError(opCompleteTask, err)
	}
	if noop {
		return nil
	}

	s.log.WithContext(ctx).Info("task completed", "leadId", leadID, "taskId", taskID, "archived", archived)
	s.eventBus.Publish(ctx, events.TaskCompleted{
		BaseEvent:   events.NewBaseEventAt(s.clock.Now()),
		LeadID:      leadID,
		TaskID:      task.ID,
		Description: task.Description,
	})
	if archived {
		s.publishArchived(ctx, lead)
	}
	return nil
}

// AcknowledgeTask ticks off an open reminder as a touchpoint and schedules the
// next cadence step. Acknowledging the terminal follow-up archives the lead.
// The returned Outcome has a zero NewTask when the lead was archived.
func (s *Service) AcknowledgeTask(ctx context.Context, taskID, leadID uuid.UUID) (Outcome, error) {
	var res lifecycle.Result
	var stored domain.Lead
	err := s.retry(ctx, leadID, func() error {
		lead, history, err := s.loadAggregate(ctx, leadID)
		if err != nil {
			return err
		}
		task, err := s.loadTask(ctx, taskID, leadID)
		if err != nil {
			return err
		}
		if lead.IsArchived() {
			return domain.ErrLeadArchived
		}
		if task.Completed {
			return domain.ErrTaskCompleted
		}

		now := s.clock.Now()
		res = lifecycle.Acknowledge(lead, task, history, now, s.newID)
		stored, err = s.store.Commit(ctx, repository.Change{
			Lead:            res.Lead,
			ExpectedVersion: lead.Version,
			Interaction:     &res.Interaction,
			CompleteTaskID:  res.CompletedTaskID,
			NewTask:         res.Task,
			At:              now,
		})
		return err
	})
	if err != nil {
		return Outcome{}, mapStoreError(opAcknowledgeTask, err)
	}

	s.afterInteraction(ctx, stored, res)
	out := Outcome{NewScore: stored.Score, NewSegment: stored.Segment, Interaction: res.Interaction}
	if res.Task != nil {
		out.NewTask = *res.Task
	}
	return out, nil
}

// UpdateLeadDetails edits note, traits and insights. It does not touch the
// score, segment or tasks and is allowed on archived leads.
func (s *Service) UpdateLeadDetails(ctx context.Context, leadID uuid.UUID, update LeadDetailsUpdate) (domain.Lead, error) {
	if update.Note != nil {
		note := sanitize.Text(*update.Note)
		update.Note = &note
	}
	if update.Traits != nil {
		traits := sanitize.Lines(*update.Traits)
		update.Traits = &traits
	}
	if update.Insights != nil {
		insights := sanitize.Lines(*update.Insights)
		update.Insights = &insights
	}
	if err := s.validate(opUpdateLeadDetails, update); err != nil {
		return domain.Lead{}, err
	}

	var stored domain.Lead
	err := s.retry(ctx, leadID, func() error {
		lead, err := s.store.GetLead(ctx, leadID)
		if err != nil {
			return err
		}
		if update.Note != nil {
			lead.Note = *update.Note
		}
		if update.Traits != nil {
			lead.Traits = *update.Traits
		}
		if update.Insights != nil {
			lead.Insights = *update.Insights
		}
		lead.UpdatedAt = s.clock.Now()
		stored, err = s.store.Commit(ctx, repository.Change{
			Lead:            lead,
			ExpectedVersion: lead.Version,
			At:              lead.UpdatedAt,
		})
		return err
	})
	if err != nil {
		return domain.Lead{}, mapStoreError(opUpdateLeadDetails, err)
	}

	s.eventBus.Publish(ctx, events.LeadDetailsUpdated{BaseEvent: events.NewBaseEventAt(stored.UpdatedAt), LeadID: stored.ID})
	return stored, nil
}

// retry runs fn until it succeeds, fails with anything but a write conflict,
// or the attempt budget is spent. fn must re-read everything it writes.
func (s *Service) retry(ctx context.Context, leadID uuid.UUID, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, repository.ErrConflict) || attempt >= s.maxAttempts {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.log.WithContext(ctx).WriteConflict(leadID.String(), attempt)
	}
}

func (s *Service) loadAggregate(ctx context.Context, leadID uuid.UUID) (domain.Lead, []domain.Interaction, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return domain.Lead{}, nil, err
	}
	history, err := s.store.ListInteractions(ctx, leadID)
	if err != nil {
		return domain.Lead{}, nil, err
	}
	return lead, history, nil
}

func (s *Service) loadTask(ctx context.Context, taskID, leadID uuid.UUID) (domain.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.LeadID != leadID {
		return domain.Task{}, repository.ErrTaskNotFound
	}
	return task, nil
}

func (s *Service) validate(op string, v any) error {
	if err := s.val.Struct(v); err != nil {
		fields, _ := validator.FieldErrors(err)
		return apperr.Wrap(apperr.KindValidation, "validation failed", err).WithOp(op).WithDetails(fields)
	}
	return nil
}

func (s *Service) afterInteraction(ctx context.Context, lead domain.Lead, res lifecycle.Result) {
	s.log.WithContext(ctx).Info("interaction logged",
		"leadId", lead.ID,
		"type", res.Interaction.Type,
		"previousScore", res.Interaction.PreviousScore,
		"newScore", res.Interaction.NewScore,
		"segment", lead.Segment,
	)
	s.eventBus.Publish(ctx, events.InteractionLogged{
		BaseEvent:       events.NewBaseEventAt(res.Interaction.Date),
		LeadID:          lead.ID,
		LeadName:        lead.Name,
		InteractionID:   res.Interaction.ID,
		InteractionType: string(res.Interaction.Type),
		PreviousScore:   res.Interaction.PreviousScore,
		NewScore:        res.Interaction.NewScore,
		Segment:         string(lead.Segment),
	})
	if res.Task != nil {
		s.publishScheduled(ctx, lead, res.Task)
	}
	if lead.IsArchived() {
		s.publishArchived(ctx, lead)
	}
}

func (s *Service) publishScheduled(ctx context.Context, lead domain.Lead, task *domain.Task) {
	if task == nil {
		return
	}
	s.eventBus.Publish(ctx, events.FollowUpScheduled{
		BaseEvent:   events.NewBaseEventAt(task.CreatedAt),
		LeadID:      lead.ID,
		LeadName:    lead.Name,
		TaskID:      task.ID,
		Description: task.Description,
		DueDate:     task.DueDate,
		Segment:     string(task.Segment),
	})
}

func (s *Service) publishArchived(ctx context.Context, lead domain.Lead) {
	s.log.WithContext(ctx).Info("lead archived", "leadId", lead.ID, "score", lead.Score)
	s.eventBus.Publish(ctx, events.LeadArchived{
		BaseEvent: events.NewBaseEventAt(lead.UpdatedAt),
		LeadID:    lead.ID,
		LeadName:  lead.Name,
		Score:     lead.Score,
	})
}

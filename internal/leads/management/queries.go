package management

import (
	"context"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/followup"
	"lead_pipeline_backend/internal/leads/repository"

	"github.com/google/uuid"
)

const (
	opGetLead      = "leads.GetLead"
	opListLeads    = "leads.ListLeads"
	opNextFollowUp = "leads.NextFollowUp"
)

// LeadSummary is a lead as shown in list views.
type LeadSummary struct {
	Lead           domain.Lead
	Responsiveness domain.Responsiveness
}

// LeadDetail is the full view of one lead.
type LeadDetail struct {
	Lead           domain.Lead
	Responsiveness domain.Responsiveness
	OpenTask       *domain.Task
	Interactions   []domain.Interaction
}

// ListLeadsParams narrows ListLeads.
type ListLeadsParams struct {
	Status *domain.LeadStatus
	Limit  int
	Offset int
}

// GetLead returns one lead.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return domain.Lead{}, mapStoreError(opGetLead, err)
	}
	return lead, nil
}

// GetLeadDetail returns a lead with its open task and its full interaction log.
func (s *Service) GetLeadDetail(ctx context.Context, id uuid.UUID) (LeadDetail, error) {
	lead, history, err := s.loadAggregate(ctx, id)
	if err != nil {
		return LeadDetail{}, mapStoreError(opGetLead, err)
	}

	open := false
	tasks, err := s.store.ListTasks(ctx, repository.TaskFilter{LeadID: &id, Completed: &open})
	if err != nil {
		return LeadDetail{}, mapStoreError(opGetLead, err)
	}

	detail := LeadDetail{
		Lead:           lead,
		Responsiveness: s.Responsiveness(lead),
		Interactions:   history,
	}
	if len(tasks) > 0 {
		detail.OpenTask = &tasks[0]
	}
	return detail, nil
}

// Responsiveness classifies the lead against the service clock.
func (s *Service) Responsiveness(lead domain.Lead) domain.Responsiveness {
	return domain.ClassifyResponsiveness(lead.LastInteractionAt, s.clock.Now())
}

// ListLeads returns leads ordered by most recent interaction.
func (s *Service) ListLeads(ctx context.Context, params ListLeadsParams) ([]LeadSummary, error) {
	leads, err := s.store.ListLeads(ctx, repository.ListLeadsParams{
		Status: params.Status,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return nil, mapStoreError(opListLeads, err)
	}

	now := s.clock.Now()
	out := make([]LeadSummary, 0, len(leads))
	for _, lead := range leads {
		out = append(out, LeadSummary{
			Lead:           lead,
			Responsiveness: domain.ClassifyResponsiveness(lead.LastInteractionAt, now),
		})
	}
	return out, nil
}

// ListInteractions returns a lead's interaction log oldest first.
func (s *Service) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error) {
	if _, err := s.store.GetLead(ctx, leadID); err != nil {
		return nil, mapStoreError(opGetLead, err)
	}
	history, err := s.store.ListInteractions(ctx, leadID)
	if err != nil {
		return nil, mapStoreError(opGetLead, err)
	}
	return history, nil
}

// ListTasks returns tasks matching filter ordered by due date.
func (s *Service) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, mapStoreError("leads.ListTasks", err)
	}
	return tasks, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID uuid.UUID) (domain.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, mapStoreError("leads.GetTask", err)
	}
	return task, nil
}

// NextFollowUp reports which cadence step a standard follow-up would schedule
// for the lead right now.
func (s *Service) NextFollowUp(ctx context.Context, leadID uuid.UUID) (followup.Step, error) {
	if _, err := s.store.GetLead(ctx, leadID); err != nil {
		return followup.Step{}, mapStoreError(opNextFollowUp, err)
	}
	history, err := s.store.ListInteractions(ctx, leadID)
	if err != nil {
		return followup.Step{}, mapStoreError(opNextFollowUp, err)
	}
	return followup.Next(history, s.clock.Now()), nil
}

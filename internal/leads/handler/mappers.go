package handler

import (
	"lead_pipeline_backend/internal/leads/agenda"
	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/management"
	"lead_pipeline_backend/internal/leads/transport"

	"github.com/google/uuid"
)

func toLeadResponse(l domain.Lead, r domain.Responsiveness) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                l.ID,
		Name:              l.Name,
		Phone:             l.Phone,
		Course:            l.Course,
		Score:             l.Score,
		Status:            string(l.Status),
		Segment:           string(l.Segment),
		LastInteractionAt: l.LastInteractionAt,
		Traits:            nonNil(l.Traits),
		Insights:          nonNil(l.Insights),
		Note:              l.Note,
		Responsiveness:    string(r),
		Version:           l.Version,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func toInteractionResponse(in domain.Interaction) transport.InteractionResponse {
	return transport.InteractionResponse{
		ID:               in.ID,
		LeadID:           in.LeadID,
		Date:             in.Date,
		Type:             string(in.Type),
		Interest:         string(in.Interest),
		Intent:           string(in.Intent),
		Engagement:       string(in.Engagement),
		Outcome:          string(in.Outcome),
		OutcomeDetail:    in.OutcomeDetail,
		Notes:            in.Notes,
		InteractionScore: in.InteractionScore,
		PreviousScore:    in.PreviousScore,
		NewScore:         in.NewScore,
		FollowUpDay:      in.FollowUpDay,
	}
}

func toInteractionResponses(history []domain.Interaction) []transport.InteractionResponse {
	out := make([]transport.InteractionResponse, 0, len(history))
	for _, in := range history {
		out = append(out, toInteractionResponse(in))
	}
	return out
}

func toTaskResponse(t domain.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:          t.ID,
		LeadID:      t.LeadID,
		Description: t.Description,
		DueDate:     t.DueDate,
		Segment:     string(t.Segment),
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		FollowUpDay: t.FollowUpDay,
		CreatedAt:   t.CreatedAt,
	}
}

func toLeadDetailResponse(d management.LeadDetail) transport.LeadDetailResponse {
	resp := transport.LeadDetailResponse{
		Lead:         toLeadResponse(d.Lead, d.Responsiveness),
		Interactions: toInteractionResponses(d.Interactions),
	}
	if d.OpenTask != nil {
		task := toTaskResponse(*d.OpenTask)
		resp.OpenTask = &task
	}
	return resp
}

func toLogInteractionResponse(o management.Outcome) transport.LogInteractionResponse {
	resp := transport.LogInteractionResponse{
		NewScore:    o.NewScore,
		NewSegment:  string(o.NewSegment),
		Interaction: toInteractionResponse(o.Interaction),
	}
	// Acknowledging the terminal follow-up archives without a new task.
	if o.NewTask.ID != uuid.Nil {
		task := toTaskResponse(o.NewTask)
		resp.NewTask = &task
	}
	return resp
}

func toEventResponses(items []agenda.EventItem) []transport.AgendaEventResponse {
	out := make([]transport.AgendaEventResponse, 0, len(items))
	for _, it := range items {
		out = append(out, transport.AgendaEventResponse{
			Task:      toTaskResponse(it.Task),
			LeadName:  it.LeadName,
			EventType: string(it.EventType),
		})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"lead_pipeline_backend/internal/leads/agenda"
	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/lifecycle"
	"lead_pipeline_backend/internal/leads/management"
	"lead_pipeline_backend/internal/leads/transport"
	"lead_pipeline_backend/platform/httpkit"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc    *management.Service
	agenda *agenda.Service
	val    *validator.Validator
}

const (
	msgInvalidRequest = "invalid request"
	msgInvalidLeadID  = "invalid lead id"
	msgInvalidTaskID  = "invalid task id"
)

func New(svc *management.Service, agendaSvc *agenda.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, agenda: agendaSvc, val: val}
}

// RegisterRoutes mounts the lead routes. Writes go through the limited group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writes gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.POST("", writes, h.Create)
	rg.GET("/:id", h.GetByID)
	rg.PATCH("/:id", writes, h.UpdateDetails)
	rg.GET("/:id/interactions", h.ListInteractions)
	rg.POST("/:id/interactions", writes, h.LogInteraction)
	rg.GET("/:id/next-follow-up", h.NextFollowUp)
	rg.POST("/:id/tasks/:taskId/complete", writes, h.CompleteTask)
}

// RegisterAgendaRoutes mounts the task and event agenda.
func (h *Handler) RegisterAgendaRoutes(rg *gin.RouterGroup) {
	rg.GET("/tasks", h.OpenTasks)
	rg.GET("/events", h.Events)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	lead, err := h.svc.AddLead(c.Request.Context(), management.AddLeadInput{
		Name:   req.Name,
		Phone:  req.Phone,
		Course: req.Course,
		Traits: req.Traits,
		Note:   req.Note,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toLeadResponse(lead, h.svc.Responsiveness(lead)))
}

func (h *Handler) List(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	params := management.ListLeadsParams{Limit: req.Limit, Offset: req.Offset}
	if req.Status != "" {
		status := domain.LeadStatus(req.Status)
		params.Status = &status
	}

	leads, err := h.svc.ListLeads(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, l := range leads {
		items = append(items, toLeadResponse(l.Lead, l.Responsiveness))
	}
	httpkit.OK(c, transport.LeadListResponse{Items: items})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	detail, err := h.svc.GetLeadDetail(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toLeadDetailResponse(detail))
}

func (h *Handler) UpdateDetails(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	lead, err := h.svc.UpdateLeadDetails(c.Request.Context(), id, management.LeadDetailsUpdate{
		Note:     req.Note,
		Traits:   req.Traits,
		Insights: req.Insights,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, toLeadResponse(lead, h.svc.Responsiveness(lead)))
}

func (h *Handler) ListInteractions(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	history, err := h.svc.ListInteractions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.InteractionListResponse{Items: toInteractionResponses(history)})
}

func (h *Handler) LogInteraction(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.LogInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if httpkit.HandleError(c, h.val.Struct(req)) {
		return
	}

	out, err := h.svc.LogInteraction(c.Request.Context(), id, management.InteractionInput{
		Signals: domain.Signals{
			Interest:   domain.Interest(req.Interest),
			Intent:     domain.Intent(req.Intent),
			Engagement: domain.Engagement(req.Engagement),
		},
		Outcome:       domain.Outcome(req.Outcome),
		OutcomeDetail: req.OutcomeDetail,
		Notes:         req.Notes,
	}, domain.InteractionType(req.Type))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, toLogInteractionResponse(out))
}

func (h *Handler) NextFollowUp(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	step, err := h.svc.NextFollowUp(ctx, id)
	if httpkit.HandleError(c, err) {
		return
	}
	lead, err := h.svc.GetLead(ctx, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NextFollowUpResponse{
		Day:         step.Day,
		DueDate:     step.Due,
		Description: lifecycle.FollowUpDescription(lead.Name, step.Day),
	})
}

func (h *Handler) CompleteTask(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidTaskID, nil)
		return
	}

	// The body is optional; an empty one means a plain completion.
	var req transport.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if req.Acknowledge {
		out, err := h.svc.AcknowledgeTask(c.Request.Context(), taskID, id)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, toLogInteractionResponse(out))
		return
	}

	if httpkit.HandleError(c, h.svc.CompleteTask(c.Request.Context(), taskID, id, req.IsTerminalFollowUp)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) OpenTasks(c *gin.Context) {
	items, err := h.agenda.OpenTasks(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.AgendaTaskResponse, 0, len(items))
	for _, it := range items {
		out = append(out, transport.AgendaTaskResponse{
			Task:           toTaskResponse(it.Task),
			LeadName:       it.LeadName,
			Responsiveness: string(it.Responsiveness),
		})
	}
	httpkit.OK(c, transport.AgendaTaskListResponse{Items: out})
}

func (h *Handler) Events(c *gin.Context) {
	groups, err := h.agenda.Events(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AgendaEventsResponse{
		Today:    toEventResponses(groups.Today),
		Tomorrow: toEventResponses(groups.Tomorrow),
		Later:    toEventResponses(groups.Later),
	})
}

// leadID parses the :id param and writes a 400 when it is not a UUID.
func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return uuid.Nil, false
	}
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.LeadIDKey, id.String()))
	return id, true
}

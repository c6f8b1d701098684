// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"lead_pipeline_backend/internal/events"
	apphttp "lead_pipeline_backend/internal/http"
	"lead_pipeline_backend/internal/leads/agenda"
	"lead_pipeline_backend/internal/leads/handler"
	"lead_pipeline_backend/internal/leads/management"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"

	"github.com/google/uuid"
)

// ModuleConfig combines the config interfaces the leads module reads.
type ModuleConfig interface {
	config.LeadsConfig
	config.AgendaConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
	agenda     *agenda.Service
	store      repository.Store
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(store repository.Store, eventBus events.Bus, clk clock.Clock, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	mgmtSvc := management.New(store, eventBus, clk, val, cfg, log)
	agendaSvc := agenda.New(store, clk, cfg.GetAgendaLocation())

	return &Module{
		handler:    handler.New(mgmtSvc, agendaSvc, val),
		management: mgmtSvc,
		agenda:     agendaSvc,
		store:      store,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// AgendaService returns the agenda read service.
func (m *Module) AgendaService() *agenda.Service {
	return m.agenda
}

// Store returns the underlying persistence store.
func (m *Module) Store() repository.Store {
	return m.store
}

// LookupTask implements TaskLookup.
func (m *Module) LookupTask(ctx context.Context, taskID uuid.UUID) (TaskStatus, error) {
	task, err := m.management.GetTask(ctx, taskID)
	if err != nil {
		return TaskStatus{}, err
	}
	lead, err := m.management.GetLead(ctx, task.LeadID)
	if err != nil {
		return TaskStatus{}, err
	}
	return TaskStatus{
		TaskID:      task.ID,
		LeadID:      lead.ID,
		LeadName:    lead.Name,
		Description: task.Description,
		DueDate:     task.DueDate,
		Open:        !task.Completed && !lead.IsArchived(),
	}, nil
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"), ctx.WriteLimiter)
	m.handler.RegisterAgendaRoutes(ctx.V1)
}

// Compile-time checks
var (
	_ apphttp.Module = (*Module)(nil)
	_ TaskLookup     = (*Module)(nil)
)

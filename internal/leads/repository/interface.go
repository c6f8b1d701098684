package repository

import (
	"context"

	"lead_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to leads.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	ListLeads(ctx context.Context, params ListLeadsParams) ([]domain.Lead, error)
}

// InteractionReader provides the append-only interaction log.
type InteractionReader interface {
	// ListInteractions returns a lead's interactions oldest first.
	ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error)
}

// TaskReader provides read-only access to tasks.
type TaskReader interface {
	GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListTaskLeads is ListTasks with the owning lead's display fields
	// read in the same query.
	ListTaskLeads(ctx context.Context, filter TaskFilter) ([]TaskLead, error)
}

// Committer applies one lead aggregate change atomically.
type Committer interface {
	Commit(ctx context.Context, change Change) (domain.Lead, error)
}

// =====================================
// Composite Interface
// =====================================

// Store is the full persistence contract of the leads module.
type Store interface {
	LeadReader
	InteractionReader
	TaskReader
	Committer
	Ping(ctx context.Context) error
}

// Compile-time checks
var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Package workspace keeps an optimistic local copy of one lead. Commands are
// applied to the copy immediately, then persisted; when persistence fails the
// copy is replaced by an authoritative re-read so it never drifts from the
// store.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/management"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// Backend is the authoritative side of the workspace.
type Backend interface {
	GetLeadDetail(ctx context.Context, id uuid.UUID) (management.LeadDetail, error)
	LogInteraction(ctx context.Context, leadID uuid.UUID, input management.InteractionInput, typ domain.InteractionType) (management.Outcome, error)
	CompleteTask(ctx context.Context, taskID, leadID uuid.UUID, isTerminalFollowUp bool) error
	AcknowledgeTask(ctx context.Context, taskID, leadID uuid.UUID) (management.Outcome, error)
}

// Snapshot is the local view of a lead.
type Snapshot struct {
	Lead         domain.Lead
	OpenTask     *domain.Task
	Interactions []domain.Interaction
	// Pending is true between a local apply and the matching persist.
	Pending bool
}

// Workspace serializes commands against one lead.
type Workspace struct {
	mu      sync.Mutex
	backend Backend
	clock   clock.Clock
	log     *logger.Logger
	leadID  uuid.UUID
	snap    Snapshot
}

// Open loads the lead and returns a workspace positioned on it.
func Open(ctx context.Context, backend Backend, clk clock.Clock, log *logger.Logger, leadID uuid.UUID) (*Workspace, error) {
	w := &Workspace{backend: backend, clock: clk, log: log, leadID: leadID}
	if err := w.reload(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Snapshot returns a copy of the current local view.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap.clone()
}

// Execute applies cmd locally, persists it and reconciles with the store.
// On a persistence error the local view is rolled forward to the stored
// state and the error is returned.
func (w *Workspace) Execute(ctx context.Context, cmd Command) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	preview, err := cmd.applyLocal(w.snap.clone(), w.clock.Now())
	if err != nil {
		return err
	}
	preview.Pending = true
	w.snap = preview

	if err := cmd.persist(ctx, w.backend, w.leadID); err != nil {
		w.log.WithContext(ctx).Warn("workspace command failed, reloading",
			"command", cmd.Name(), "leadId", w.leadID, "error", err)
		if reloadErr := w.reload(ctx); reloadErr != nil {
			return errors.Join(err, fmt.Errorf("reload lead: %w", reloadErr))
		}
		return err
	}

	if err := w.reload(ctx); err != nil {
		// The write landed; keep the preview until the next successful read.
		w.log.WithContext(ctx).Warn("workspace reconcile failed", "leadId", w.leadID, "error", err)
	}
	return nil
}

// Refresh replaces the local view with the stored state.
func (w *Workspace) Refresh(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reload(ctx)
}

func (w *Workspace) reload(ctx context.Context) error {
	detail, err := w.backend.GetLeadDetail(ctx, w.leadID)
	if err != nil {
		return err
	}
	w.snap = Snapshot{Lead: detail.Lead, OpenTask: detail.OpenTask, Interactions: detail.Interactions}
	return nil
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Interactions = append([]domain.Interaction(nil), s.Interactions...)
	if s.OpenTask != nil {
		task := *s.OpenTask
		out.OpenTask = &task
	}
	return out
}

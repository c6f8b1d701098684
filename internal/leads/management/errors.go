package management

import (
	"errors"
	"fmt"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/lifecycle"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/platform/apperr"
)

// mapStoreError turns store and domain errors into typed application errors.
// The domain sentinel stays in the chain so callers can use errors.Is.
func mapStoreError(op string, err error) error {
	var appErr *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, domain.ErrLeadNotFound):
		return apperr.Wrap(apperr.KindNotFound, "lead not found", domain.ErrLeadNotFound).WithOp(op)
	case errors.Is(err, repository.ErrTaskNotFound), errors.Is(err, domain.ErrTaskNotFound):
		return apperr.Wrap(apperr.KindNotFound, "task not found", domain.ErrTaskNotFound).WithOp(op)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Wrap(apperr.KindConflict, "lead was changed by another request, reload and retry", fmt.Errorf("%w: %v", domain.ErrTransactionConflict, err)).WithOp(op)
	case errors.Is(err, domain.ErrLeadArchived):
		return apperr.Wrap(apperr.KindConflict, "lead is archived", err).WithOp(op)
	case errors.Is(err, domain.ErrTaskCompleted):
		return apperr.Wrap(apperr.KindConflict, "task already completed", err).WithOp(op)
	case errors.Is(err, domain.ErrInvalidInteractionShape):
		return shapeError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func shapeError(op string, err error) error {
	e := apperr.Wrap(apperr.KindValidation, err.Error(), err).WithOp(op)
	var shape *lifecycle.ShapeError
	if errors.As(err, &shape) {
		e = e.WithDetails(map[string]string{shape.Field: shape.Reason})
	}
	return e
}

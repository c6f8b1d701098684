package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lead_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStore persists the pipeline in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store backed by pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const pgLeadColumns = `id, name, phone, course, score, status, segment, last_interaction_at,
	traits, insights, note, version, created_at, updated_at`

func (r *PostgresStore) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pgLeadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanPgLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *PostgresStore) ListLeads(ctx context.Context, params ListLeadsParams) ([]domain.Lead, error) {
	args := []any{normalizeLimit(params.Limit), max(params.Offset, 0)}
	where := ""
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = "WHERE status = $3"
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+pgLeadColumns+`
		FROM leads `+where+`
		ORDER BY last_interaction_at DESC, id
		LIMIT $1 OFFSET $2
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanPgLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *PostgresStore) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, occurred_at, type, interest, intent, engagement, outcome, outcome_detail, notes,
			interaction_score, previous_score, new_score, follow_up_day
		FROM lead_interactions
		WHERE lead_id = $1
		ORDER BY occurred_at ASC, seq ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Interaction, 0)
	for rows.Next() {
		var in domain.Interaction
		var typ, interest, intent, engagement, outcome string
		if err := rows.Scan(
			&in.ID, &in.LeadID, &in.Date, &typ, &interest, &intent, &engagement, &outcome, &in.OutcomeDetail, &in.Notes,
			&in.InteractionScore, &in.PreviousScore, &in.NewScore, &in.FollowUpDay,
		); err != nil {
			return nil, err
		}
		in.Type = domain.InteractionType(typ)
		in.Interest = domain.Interest(interest)
		in.Intent = domain.Intent(intent)
		in.Engagement = domain.Engagement(engagement)
		in.Outcome = domain.Outcome(outcome)
		items = append(items, in)
	}
	return items, rows.Err()
}

const pgTaskColumns = `t.id, t.lead_id, t.description, t.due_date, t.segment, t.completed, t.completed_at,
	t.follow_up_day, t.created_at`

func (r *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pgTaskColumns+` FROM lead_tasks t WHERE t.id = $1`, id)
	task, err := scanPgTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (r *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	rows, err := r.queryTasks(ctx, pgTaskColumns, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanPgTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *PostgresStore) ListTaskLeads(ctx context.Context, filter TaskFilter) ([]TaskLead, error) {
	rows, err := r.queryTasks(ctx, pgTaskColumns+`, l.name, l.status, l.last_interaction_at`, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TaskLead, 0)
	for rows.Next() {
		var (
			item   TaskLead
			status string
		)
		item.Task, err = scanPgTask(rows, &item.LeadName, &status, &item.LeadLastInteractionAt)
		if err != nil {
			return nil, err
		}
		item.LeadStatus = domain.LeadStatus(status)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresStore) queryTasks(ctx context.Context, columns string, filter TaskFilter) (pgx.Rows, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.LeadID != nil {
		conds = append(conds, "t.lead_id = "+arg(*filter.LeadID))
	}
	if filter.Completed != nil {
		conds = append(conds, "t.completed = "+arg(*filter.Completed))
	}
	if filter.Segment != nil {
		conds = append(conds, "t.segment = "+arg(string(*filter.Segment)))
	}
	if filter.ActiveLeadsOnly {
		conds = append(conds, "l.status = "+arg(string(domain.LeadStatusActive)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	return r.pool.Query(ctx, `
		SELECT `+columns+`
		FROM lead_tasks t
		JOIN leads l ON l.id = t.lead_id
		`+where+`
		ORDER BY t.due_date ASC, t.created_at ASC
	`, args...)
}

// Commit applies change in one transaction. See Change for the step order.
func (r *PostgresStore) Commit(ctx context.Context, change Change) (domain.Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Lead{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lead := change.Lead
	if change.Create {
		lead.Version = 1
		if err := pgInsertLead(ctx, tx, lead); err != nil {
			return domain.Lead{}, mapPgError(err)
		}
	} else {
		version, err := pgUpdateLead(ctx, tx, lead, change.ExpectedVersion)
		if err != nil {
			return domain.Lead{}, err
		}
		lead.Version = version
	}

	if change.CompleteTaskID != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE lead_tasks SET completed = true, completed_at = COALESCE(completed_at, $3)
			WHERE id = $1 AND lead_id = $2
		`, *change.CompleteTaskID, lead.ID, change.At)
		if err != nil {
			return domain.Lead{}, err
		}
		if tag.RowsAffected() == 0 {
			return domain.Lead{}, ErrTaskNotFound
		}
	}

	if in := change.Interaction; in != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO lead_interactions (
				id, lead_id, occurred_at, type, interest, intent, engagement, outcome, outcome_detail, notes,
				interaction_score, previous_score, new_score, follow_up_day
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, in.ID, lead.ID, in.Date, string(in.Type), string(in.Interest), string(in.Intent), string(in.Engagement),
			string(in.Outcome), in.OutcomeDetail, in.Notes, in.InteractionScore, in.PreviousScore, in.NewScore, in.FollowUpDay)
		if err != nil {
			return domain.Lead{}, mapPgError(err)
		}
	}

	if task := change.NewTask; task != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE lead_tasks SET completed = true, completed_at = $2
			WHERE lead_id = $1 AND completed = false
		`, lead.ID, change.At); err != nil {
			return domain.Lead{}, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_tasks (id, lead_id, description, due_date, segment, completed, follow_up_day, created_at)
			VALUES ($1, $2, $3, $4, $5, false, $6, $7)
		`, task.ID, lead.ID, task.Description, task.DueDate, string(task.Segment), task.FollowUpDay, task.CreatedAt); err != nil {
			return domain.Lead{}, mapPgError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, mapPgError(err)
	}
	return lead, nil
}

func pgInsertLead(ctx context.Context, tx pgx.Tx, lead domain.Lead) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO leads (id, name, phone, course, score, status, segment, last_interaction_at,
			traits, insights, note, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, lead.ID, lead.Name, lead.Phone, lead.Course, lead.Score, string(lead.Status), string(lead.Segment),
		lead.LastInteractionAt, nonNil(lead.Traits), nonNil(lead.Insights), lead.Note, lead.Version, lead.CreatedAt, lead.UpdatedAt)
	return err
}

func pgUpdateLead(ctx context.Context, tx pgx.Tx, lead domain.Lead, expected int) (int, error) {
	var version int
	err := tx.QueryRow(ctx, `
		UPDATE leads SET name = $3, phone = $4, course = $5, score = $6, status = $7, segment = $8,
			last_interaction_at = $9, traits = $10, insights = $11, note = $12, updated_at = $13,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`, lead.ID, expected, lead.Name, lead.Phone, lead.Course, lead.Score, string(lead.Status), string(lead.Segment),
		lead.LastInteractionAt, nonNil(lead.Traits), nonNil(lead.Insights), lead.Note, lead.UpdatedAt).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, lead.ID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrConflict
}

func scanPgLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead            domain.Lead
		status, segment string
	)
	err := row.Scan(&lead.ID, &lead.Name, &lead.Phone, &lead.Course, &lead.Score, &status, &segment,
		&lead.LastInteractionAt, &lead.Traits, &lead.Insights, &lead.Note, &lead.Version, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Status = domain.LeadStatus(status)
	lead.Segment = domain.Segment(segment)
	return lead, nil
}

// scanPgTask reads pgTaskColumns followed by any extra columns.
func scanPgTask(row pgx.Row, extra ...any) (domain.Task, error) {
	var (
		task    domain.Task
		segment string
	)
	dest := append([]any{&task.ID, &task.LeadID, &task.Description, &task.DueDate, &segment, &task.Completed,
		&task.CompletedAt, &task.FollowUpDay, &task.CreatedAt}, extra...)
	err := row.Scan(dest...)
	if err != nil {
		return domain.Task{}, err
	}
	task.Segment = domain.Segment(segment)
	return task, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

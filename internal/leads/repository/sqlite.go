package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lead_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore persists the pipeline in an embedded SQLite database. It backs
// local runs, leadctl and the test suites.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a store on an already migrated connection.
func NewSQLite(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const sqliteLeadColumns = `id, name, phone, course, score, status, segment, last_interaction_at,
	traits, insights, note, version, created_at, updated_at`

func (s *SQLiteStore) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteLeadColumns+` FROM leads WHERE id = ?`, id.String())
	lead, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (s *SQLiteStore) ListLeads(ctx context.Context, params ListLeadsParams) ([]domain.Lead, error) {
	query := `SELECT ` + sqliteLeadColumns + ` FROM leads`
	var args []any
	if params.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*params.Status))
	}
	query += ` ORDER BY last_interaction_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, normalizeLimit(params.Limit), max(params.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *SQLiteStore) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lead_id, occurred_at, type, interest, intent, engagement, outcome, outcome_detail, notes,
			interaction_score, previous_score, new_score, follow_up_day
		FROM lead_interactions
		WHERE lead_id = ?
		ORDER BY occurred_at ASC, rowid ASC
	`, leadID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Interaction, 0)
	for rows.Next() {
		var in domain.Interaction
		var id, lead, typ, interest, intent, engagement, outcome string
		var occurredAt int64
		var day sql.NullInt64
		if err := rows.Scan(
			&id, &lead, &occurredAt, &typ, &interest, &intent, &engagement, &outcome, &in.OutcomeDetail, &in.Notes,
			&in.InteractionScore, &in.PreviousScore, &in.NewScore, &day,
		); err != nil {
			return nil, err
		}
		if in.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if in.LeadID, err = uuid.Parse(lead); err != nil {
			return nil, err
		}
		in.Date = fromNanos(occurredAt)
		in.Type = domain.InteractionType(typ)
		in.Interest = domain.Interest(interest)
		in.Intent = domain.Intent(intent)
		in.Engagement = domain.Engagement(engagement)
		in.Outcome = domain.Outcome(outcome)
		in.FollowUpDay = intPtr(day)
		items = append(items, in)
	}
	return items, rows.Err()
}

const sqliteTaskColumns = `t.id, t.lead_id, t.description, t.due_date, t.segment, t.completed, t.completed_at,
	t.follow_up_day, t.created_at`

func (s *SQLiteStore) GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteTaskColumns+` FROM lead_tasks t WHERE t.id = ?`, id.String())
	task, err := scanSQLiteTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, err
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	rows, err := s.queryTasks(ctx, sqliteTaskColumns, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) ListTaskLeads(ctx context.Context, filter TaskFilter) ([]TaskLead, error) {
	rows, err := s.queryTasks(ctx, sqliteTaskColumns+`, l.name, l.status, l.last_interaction_at`, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TaskLead, 0)
	for rows.Next() {
		var (
			item   TaskLead
			status string
			lastAt int64
		)
		item.Task, err = scanSQLiteTask(rows, &item.LeadName, &status, &lastAt)
		if err != nil {
			return nil, err
		}
		item.LeadStatus = domain.LeadStatus(status)
		item.LeadLastInteractionAt = fromNanos(lastAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) queryTasks(ctx context.Context, columns string, filter TaskFilter) (*sql.Rows, error) {
	var (
		conds []string
		args  []any
	)
	if filter.LeadID != nil {
		conds = append(conds, "t.lead_id = ?")
		args = append(args, filter.LeadID.String())
	}
	if filter.Completed != nil {
		conds = append(conds, "t.completed = ?")
		args = append(args, *filter.Completed)
	}
	if filter.Segment != nil {
		conds = append(conds, "t.segment = ?")
		args = append(args, string(*filter.Segment))
	}
	if filter.ActiveLeadsOnly {
		conds = append(conds, "l.status = ?")
		args = append(args, string(domain.LeadStatusActive))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	return s.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM lead_tasks t
		JOIN leads l ON l.id = t.lead_id
		`+where+`
		ORDER BY t.due_date ASC, t.created_at ASC
	`, args...)
}

// Commit applies change in one transaction. See Change for the step order.
// Every statement runs on tx: the pool holds a single connection.
func (s *SQLiteStore) Commit(ctx context.Context, change Change) (domain.Lead, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lead := change.Lead
	if change.Create {
		lead.Version = 1
		if err := sqliteInsertLead(ctx, tx, lead); err != nil {
			return domain.Lead{}, mapSQLiteError(err)
		}
	} else {
		version, err := sqliteUpdateLead(ctx, tx, lead, change.ExpectedVersion)
		if err != nil {
			return domain.Lead{}, err
		}
		lead.Version = version
	}

	at := toNanos(change.At)
	if change.CompleteTaskID != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE lead_tasks SET completed = 1, completed_at = COALESCE(completed_at, ?)
			WHERE id = ? AND lead_id = ?
		`, at, change.CompleteTaskID.String(), lead.ID.String())
		if err != nil {
			return domain.Lead{}, err
		}
		if n, err := res.RowsAffected(); err != nil {
			return domain.Lead{}, err
		} else if n == 0 {
			return domain.Lead{}, ErrTaskNotFound
		}
	}

	if in := change.Interaction; in != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lead_interactions (
				id, lead_id, occurred_at, type, interest, intent, engagement, outcome, outcome_detail, notes,
				interaction_score, previous_score, new_score, follow_up_day
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, in.ID.String(), lead.ID.String(), toNanos(in.Date), string(in.Type), string(in.Interest), string(in.Intent),
			string(in.Engagement), string(in.Outcome), in.OutcomeDetail, in.Notes,
			in.InteractionScore, in.PreviousScore, in.NewScore, nullInt(in.FollowUpDay))
		if err != nil {
			return domain.Lead{}, mapSQLiteError(err)
		}
	}

	if task := change.NewTask; task != nil {
		if _, err := tx.ExecContext(ctx, `
			UPDATE lead_tasks SET completed = 1, completed_at = ?
			WHERE lead_id = ? AND completed = 0
		`, at, lead.ID.String()); err != nil {
			return domain.Lead{}, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lead_tasks (id, lead_id, description, due_date, segment, completed, follow_up_day, created_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		`, task.ID.String(), lead.ID.String(), task.Description, toNanos(task.DueDate), string(task.Segment),
			nullInt(task.FollowUpDay), toNanos(task.CreatedAt)); err != nil {
			return domain.Lead{}, mapSQLiteError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Lead{}, mapSQLiteError(err)
	}
	return lead, nil
}

func sqliteInsertLead(ctx context.Context, tx *sql.Tx, lead domain.Lead) error {
	traits, insights, err := encodeTags(lead)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO leads (id, name, phone, course, score, status, segment, last_interaction_at,
			traits, insights, note, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID.String(), lead.Name, lead.Phone, lead.Course, lead.Score, string(lead.Status), string(lead.Segment),
		toNanos(lead.LastInteractionAt), traits, insights, lead.Note, lead.Version, toNanos(lead.CreatedAt), toNanos(lead.UpdatedAt))
	return err
}

func sqliteUpdateLead(ctx context.Context, tx *sql.Tx, lead domain.Lead, expected int) (int, error) {
	traits, insights, err := encodeTags(lead)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE leads SET name = ?, phone = ?, course = ?, score = ?, status = ?, segment = ?,
			last_interaction_at = ?, traits = ?, insights = ?, note = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`, lead.Name, lead.Phone, lead.Course, lead.Score, string(lead.Status), string(lead.Segment),
		toNanos(lead.LastInteractionAt), traits, insights, lead.Note, toNanos(lead.UpdatedAt),
		lead.ID.String(), expected)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		return expected + 1, nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = ?)`, lead.ID.String()).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrConflict
}

func scanSQLiteLead(row rowScanner) (domain.Lead, error) {
	var (
		lead                         domain.Lead
		id, status, segment          string
		traits, insights             string
		lastAt, createdAt, updatedAt int64
	)
	err := row.Scan(&id, &lead.Name, &lead.Phone, &lead.Course, &lead.Score, &status, &segment,
		&lastAt, &traits, &insights, &lead.Note, &lead.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Lead{}, err
	}
	if lead.ID, err = uuid.Parse(id); err != nil {
		return domain.Lead{}, err
	}
	if err := json.Unmarshal([]byte(traits), &lead.Traits); err != nil {
		return domain.Lead{}, fmt.Errorf("decode traits: %w", err)
	}
	if err := json.Unmarshal([]byte(insights), &lead.Insights); err != nil {
		return domain.Lead{}, fmt.Errorf("decode insights: %w", err)
	}
	lead.Status = domain.LeadStatus(status)
	lead.Segment = domain.Segment(segment)
	lead.LastInteractionAt = fromNanos(lastAt)
	lead.CreatedAt = fromNanos(createdAt)
	lead.UpdatedAt = fromNanos(updatedAt)
	return lead, nil
}

// scanSQLiteTask reads sqliteTaskColumns followed by any extra columns.
func scanSQLiteTask(row rowScanner, extra ...any) (domain.Task, error) {
	var (
		task                domain.Task
		id, leadID, segment string
		dueDate, createdAt  int64
		completedAt, day    sql.NullInt64
	)
	dest := append([]any{&id, &leadID, &task.Description, &dueDate, &segment, &task.Completed, &completedAt, &day, &createdAt}, extra...)
	err := row.Scan(dest...)
	if err != nil {
		return domain.Task{}, err
	}
	if task.ID, err = uuid.Parse(id); err != nil {
		return domain.Task{}, err
	}
	if task.LeadID, err = uuid.Parse(leadID); err != nil {
		return domain.Task{}, err
	}
	task.Segment = domain.Segment(segment)
	task.DueDate = fromNanos(dueDate)
	task.CreatedAt = fromNanos(createdAt)
	task.FollowUpDay = intPtr(day)
	if completedAt.Valid {
		t := fromNanos(completedAt.Int64)
		task.CompletedAt = &t
	}
	return task, nil
}

func encodeTags(lead domain.Lead) (string, string, error) {
	traits, err := json.Marshal(nonNil(lead.Traits))
	if err != nil {
		return "", "", err
	}
	insights, err := json.Marshal(nonNil(lead.Insights))
	if err != nil {
		return "", "", err
	}
	return string(traits), string(insights), nil
}

func mapSQLiteError(err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrConflict, sqlErr.Error())
		}
	}
	return err
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

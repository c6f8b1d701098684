package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/db"

	"github.com/google/uuid"
)

var testNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, db.MemoryDSN)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("MigrateSQLite: %v", err)
	}
	return NewSQLite(conn)
}

func intp(n int) *int { return &n }

func createLead(t *testing.T, s *SQLiteStore, name string, at time.Time) (domain.Lead, domain.Task) {
	t.Helper()
	lead := domain.NewLead(uuid.New(), name, "+15550001111", "UX Design", []string{"Pays for Value"}, "", at)
	task := domain.Task{
		ID: uuid.New(), LeadID: lead.ID, Description: "Follow up with " + name + " (Day 1)",
		DueDate: at.AddDate(0, 0, 1), Segment: domain.SegmentStandardFollowUp, FollowUpDay: intp(1), CreatedAt: at,
	}
	stored, err := s.Commit(context.Background(), Change{
		Lead:   lead,
		Create: true,
		Interaction: &domain.Interaction{
			ID: uuid.New(), LeadID: lead.ID, Date: at, Type: domain.InteractionCreation, Notes: "Lead Created",
			PreviousScore: 50, NewScore: 50,
		},
		NewTask: &task,
		At:      at,
	})
	if err != nil {
		t.Fatalf("create commit: %v", err)
	}
	return stored, task
}

func openTasks(t *testing.T, s *SQLiteStore, leadID uuid.UUID) []domain.Task {
	t.Helper()
	open := false
	tasks, err := s.ListTasks(context.Background(), TaskFilter{LeadID: &leadID, Completed: &open})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	return tasks
}

func TestCommitCreateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	lead, task := createLead(t, s, "Alex Johnson", testNow)

	if lead.Version != 1 {
		t.Fatalf("version = %d, want 1", lead.Version)
	}
	got, err := s.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if got.Name != "Alex Johnson" || got.Score != 50 || got.Segment != domain.SegmentStandardFollowUp {
		t.Fatalf("lead = %+v", got)
	}
	if len(got.Traits) != 1 || got.Traits[0] != "Pays for Value" || len(got.Insights) != 0 {
		t.Fatalf("tags = %v / %v", got.Traits, got.Insights)
	}
	if !got.LastInteractionAt.Equal(testNow) {
		t.Fatalf("last interaction = %s", got.LastInteractionAt)
	}

	stored, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored.Completed || stored.FollowUpDay == nil || *stored.FollowUpDay != 1 || !stored.DueDate.Equal(task.DueDate) {
		t.Fatalf("task = %+v", stored)
	}

	log, err := s.ListInteractions(ctx, lead.ID)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(log) != 1 || log[0].Type != domain.InteractionCreation || log[0].FollowUpDay != nil {
		t.Fatalf("log = %+v", log)
	}
}

func TestCommitSupersedesOpenTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	lead, first := createLead(t, s, "Brenda Smith", testNow)

	later := testNow.Add(time.Hour)
	lead.Score = 95
	lead.Segment = domain.SegmentPaymentPending
	next := domain.Task{
		ID: uuid.New(), LeadID: lead.ID, Description: "Close Brenda Smith: follow up on payment link",
		DueDate: later.AddDate(0, 0, 1), Segment: domain.SegmentPaymentPending, CreatedAt: later,
	}
	updated, err := s.Commit(ctx, Change{
		Lead:            lead,
		ExpectedVersion: lead.Version,
		Interaction: &domain.Interaction{
			ID: uuid.New(), LeadID: lead.ID, Date: later, Type: domain.InteractionEngagement,
			Signals: domain.Signals{Interest: domain.InterestLove, Intent: domain.IntentHigh, Engagement: domain.EngagementPositive},
			Outcome: domain.OutcomePayLink, InteractionScore: 55, PreviousScore: 50, NewScore: 95,
		},
		NewTask: &next,
		At:      later,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d, want 2", updated.Version)
	}

	open := openTasks(t, s, lead.ID)
	if len(open) != 1 || open[0].ID != next.ID {
		t.Fatalf("open tasks = %+v", open)
	}
	old, err := s.GetTask(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !old.Completed || old.CompletedAt == nil || !old.CompletedAt.Equal(later) {
		t.Fatalf("superseded task = %+v", old)
	}

	log, _ := s.ListInteractions(ctx, lead.ID)
	if len(log) != 2 || log[1].Outcome != domain.OutcomePayLink || log[1].PreviousScore != log[0].NewScore {
		t.Fatalf("log = %+v", log)
	}
}

func TestCommitDetectsStaleVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	lead, _ := createLead(t, s, "Charlie Brown", testNow)

	lead.Note = "first writer"
	if _, err := s.Commit(ctx, Change{Lead: lead, ExpectedVersion: 1, At: testNow}); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	lead.Note = "second writer"
	_, err := s.Commit(ctx, Change{
		Lead:            lead,
		ExpectedVersion: 1,
		Interaction:     &domain.Interaction{ID: uuid.New(), LeadID: lead.ID, Date: testNow, Type: domain.InteractionTouchpoint, NewScore: 48, PreviousScore: 50, InteractionScore: -2},
		At:              testNow,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	got, _ := s.GetLead(ctx, lead.ID)
	if got.Note != "first writer" || got.Version != 2 {
		t.Fatalf("lead = %+v", got)
	}
	log, _ := s.ListInteractions(ctx, lead.ID)
	if len(log) != 1 {
		t.Fatalf("rolled back interaction was persisted: %+v", log)
	}
}

func TestCommitUnknownLeadAndTask(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ghost := domain.NewLead(uuid.New(), "Nobody", "", "", nil, "", testNow)
	if _, err := s.Commit(ctx, Change{Lead: ghost, ExpectedVersion: 1, At: testNow}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	lead, _ := createLead(t, s, "Diana Prince", testNow)
	missing := uuid.New()
	archived := lead
	archived.Status = domain.LeadStatusArchived
	_, err := s.Commit(ctx, Change{Lead: archived, ExpectedVersion: lead.Version, CompleteTaskID: &missing, At: testNow})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
	got, _ := s.GetLead(ctx, lead.ID)
	if got.IsArchived() {
		t.Fatalf("archive was not rolled back")
	}
}

func TestCommitCompletesTaskAndArchives(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	lead, task := createLead(t, s, "George Costanza", testNow)

	done := testNow.Add(2 * time.Hour)
	archived := lead
	archived.Status = domain.LeadStatusArchived
	if _, err := s.Commit(ctx, Change{Lead: archived, ExpectedVersion: lead.Version, CompleteTaskID: &task.ID, At: done}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, _ := s.GetLead(ctx, lead.ID)
	if !got.IsArchived() {
		t.Fatalf("lead not archived")
	}
	if open := openTasks(t, s, lead.ID); len(open) != 0 {
		t.Fatalf("open tasks = %+v", open)
	}
}

func TestListLeadsAndTasks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	older, _ := createLead(t, s, "Older", testNow.Add(-72*time.Hour))
	newer, _ := createLead(t, s, "Newer", testNow)
	archivedLead, archivedTask := createLead(t, s, "Archived", testNow.Add(-time.Hour))

	gone := archivedLead
	gone.Status = domain.LeadStatusArchived
	if _, err := s.Commit(ctx, Change{Lead: gone, ExpectedVersion: 1, At: testNow}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	all, err := s.ListLeads(ctx, ListLeadsParams{})
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if len(all) != 3 || all[0].ID != newer.ID || all[2].ID != older.ID {
		t.Fatalf("order = %v, %v, %v", all[0].Name, all[1].Name, all[2].Name)
	}

	active := domain.LeadStatusActive
	onlyActive, _ := s.ListLeads(ctx, ListLeadsParams{Status: &active})
	if len(onlyActive) != 2 {
		t.Fatalf("active leads = %d, want 2", len(onlyActive))
	}

	open := false
	tasks, err := s.ListTasks(ctx, TaskFilter{Completed: &open, ActiveLeadsOnly: true})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].LeadID != older.ID {
		t.Fatalf("tasks = %+v", tasks)
	}
	for _, task := range tasks {
		if task.ID == archivedTask.ID {
			t.Fatalf("archived lead's task listed")
		}
	}
}

func TestListTaskLeadsJoinsLeadFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	older, olderTask := createLead(t, s, "Older", testNow.Add(-72*time.Hour))
	archivedLead, _ := createLead(t, s, "Archived", testNow.Add(-time.Hour))

	gone := archivedLead
	gone.Status = domain.LeadStatusArchived
	if _, err := s.Commit(ctx, Change{Lead: gone, ExpectedVersion: 1, At: testNow}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	open := false
	tests := []struct {
		name   string
		filter TaskFilter
		want   int
	}{
		{"active only", TaskFilter{Completed: &open, ActiveLeadsOnly: true}, 1},
		{"all leads", TaskFilter{Completed: &open}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.ListTaskLeads(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListTaskLeads: %v", err)
			}
			if len(rows) != tt.want {
				t.Fatalf("rows = %d, want %d", len(rows), tt.want)
			}
			first := rows[0]
			if first.Task.ID != olderTask.ID || first.LeadName != "Older" || first.LeadStatus != domain.LeadStatusActive {
				t.Fatalf("first row = %+v", first)
			}
			if !first.LeadLastInteractionAt.Equal(older.LastInteractionAt) {
				t.Fatalf("last interaction = %v, want %v", first.LeadLastInteractionAt, older.LastInteractionAt)
			}
		})
	}
}

func TestSecondOpenTaskIsRejectedByIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	lead, _ := createLead(t, s, "Ethan Hunt", testNow)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lead_tasks (id, lead_id, description, due_date, segment, completed, created_at)
		VALUES (?, ?, 'dup', 0, 'Standard Follow-up', 0, 0)
	`, uuid.NewString(), lead.ID.String())
	if err == nil {
		t.Fatalf("expected unique index violation")
	}
	if !errors.Is(mapSQLiteError(err), ErrConflict) {
		t.Fatalf("mapped err = %v, want ErrConflict", mapSQLiteError(err))
	}
}

type sqliteConfig struct{ path string }

func (c sqliteConfig) GetStorageDriver() string { return config.StorageDriverSQLite }
func (c sqliteConfig) GetDatabaseURL() string   { return "" }
func (c sqliteConfig) GetSQLitePath() string    { return c.path }

func TestOpenSQLiteFromConfig(t *testing.T) {
	ctx := context.Background()
	store, closeFn, err := Open(ctx, sqliteConfig{path: filepath.Join(t.TempDir(), "leads.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closeFn()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if _, err := store.GetLead(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLead() error = %v, want ErrNotFound", err)
	}
}

package seed

import (
	"context"
	"io"
	"testing"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/platform/db"
	"lead_pipeline_backend/platform/logger"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) repository.Store {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, db.MemoryDSN)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := repository.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("MigrateSQLite: %v", err)
	}
	return repository.NewSQLite(conn)
}

func TestRunLoadsSamplePipeline(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	log := logger.NewWithWriter("development", io.Discard)

	res, err := Run(ctx, store, testNow, log)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Created != 7 || res.Skipped != 0 {
		t.Fatalf("result = %+v, want 7 created", res)
	}

	leads, err := store.ListLeads(ctx, repository.ListLeadsParams{})
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if len(leads) != 7 {
		t.Fatalf("leads = %d, want 7", len(leads))
	}
	if leads[0].Name != "Diana Prince" {
		t.Fatalf("most recent lead = %s, want Diana Prince", leads[0].Name)
	}

	archived := domain.LeadStatusArchived
	gone, err := store.ListLeads(ctx, repository.ListLeadsParams{Status: &archived})
	if err != nil {
		t.Fatalf("ListLeads archived: %v", err)
	}
	if len(gone) != 1 || gone[0].Name != "Fiona Glenanne" {
		t.Fatalf("archived = %+v", gone)
	}

	open := false
	tasks, err := store.ListTasks(ctx, repository.TaskFilter{Completed: &open})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 6 {
		t.Fatalf("open tasks = %d, want 6", len(tasks))
	}
	var terminal int
	for _, task := range tasks {
		if task.IsTerminalFollowUp() {
			terminal++
		}
	}
	if terminal != 1 {
		t.Fatalf("terminal follow-ups = %d, want 1", terminal)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	log := logger.NewWithWriter("development", io.Discard)

	if _, err := Run(ctx, store, testNow, log); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	res, err := Run(ctx, store, testNow.Add(time.Hour), log)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if res.Created != 0 || res.Skipped != 7 {
		t.Fatalf("result = %+v, want all skipped", res)
	}
}

func TestDemoLeadCarriesEventDate(t *testing.T) {
	var fx fixture
	fx.Leads = []leadFixture{{
		Key: "demo", Name: "Brenda Smith", Course: "Data Science", Score: 95, Segment: "Awaiting Event",
		Interaction: interactionFixture{
			Type: "Engagement", Interest: "Love", Intent: "High", Engagement: "Positive",
			Outcome: "Demo", OutcomeDetailInDays: intp(3),
		},
	}}

	change, err := fx.Leads[0].change(testNow)
	if err != nil {
		t.Fatalf("change() error = %v", err)
	}
	want := testNow.AddDate(0, 0, 3).Format(time.RFC3339)
	if change.Interaction.OutcomeDetail != want {
		t.Fatalf("outcome detail = %q, want %q", change.Interaction.OutcomeDetail, want)
	}
	if change.NewTask != nil {
		t.Fatalf("fixture without task produced one")
	}
}

func TestFixtureRejectsUnknownSegment(t *testing.T) {
	lf := leadFixture{Key: "bad", Segment: "Cold", Interaction: interactionFixture{Type: "Engagement"}}
	if _, err := lf.change(testNow); err == nil {
		t.Fatalf("expected error for unknown segment")
	}
}

func intp(n int) *int { return &n }

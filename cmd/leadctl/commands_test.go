package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/leads"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/internal/notification"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/db"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"

	"github.com/google/uuid"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

// newTestCLI wires the CLI to an in-memory store. Notifications land in the
// returned buffer once the CLI is closed.
func newTestCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	notices := &bytes.Buffer{}

	open := func(ctx context.Context, _ rootOptions) (*app, error) {
		conn, err := db.OpenSQLite(ctx, db.MemoryDSN)
		if err != nil {
			return nil, err
		}
		if err := repository.MigrateSQLite(ctx, conn); err != nil {
			return nil, err
		}
		store := repository.NewSQLite(conn)

		cfg := &config.Config{DefaultPhoneRegion: "US", LeadWriteMaxAttempts: 3, TaskReminderLeadTime: 30 * time.Minute}
		log := logger.NewWithWriter("development", io.Discard)
		clk := clock.NewFixed(testNow)
		bus := events.NewInMemoryBus(log)
		notification.New(newTerminalSink(notices), nil, nil, cfg, clk, log).RegisterHandlers(bus)

		return &app{
			leads: leads.NewModule(store, bus, clk, validator.New(), cfg, log),
			store: store,
			clock: clk,
			log:   log,
			close: func() {
				bus.Wait()
				conn.Close()
			},
		}, nil
	}

	c := &cli{open: open}
	t.Cleanup(c.close)
	return c, notices
}

func execute(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	root := c.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, c *cli, args ...string) string {
	t.Helper()
	out, err := execute(t, c, args...)
	if err != nil {
		t.Fatalf("leadctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func openTaskID(t *testing.T, c *cli, leadID string) string {
	t.Helper()
	id := uuid.MustParse(leadID)
	open := false
	tasks, err := c.app.leads.ManagementService().ListTasks(context.Background(), repository.TaskFilter{LeadID: &id, Completed: &open})
	if err != nil || len(tasks) != 1 {
		t.Fatalf("open tasks for %s = %d, err %v", leadID, len(tasks), err)
	}
	return tasks[0].ID.String()
}

func TestSeedListAndAgenda(t *testing.T) {
	c, _ := newTestCLI(t)

	out := mustExecute(t, c, "seed")
	if !strings.Contains(out, "seeded 7 leads") {
		t.Fatalf("seed output = %q", out)
	}
	out = mustExecute(t, c, "seed")
	if !strings.Contains(out, "seeded 0 leads (7 already present)") {
		t.Fatalf("second seed output = %q", out)
	}

	out = mustExecute(t, c, "list", "--status", "Archived")
	if !strings.Contains(out, "Fiona Glenanne") || strings.Contains(out, "Alex Johnson") {
		t.Fatalf("archived list = %q", out)
	}

	out = mustExecute(t, c, "agenda")
	if !strings.Contains(out, "Follow up with George Costanza (Day 7)") {
		t.Fatalf("agenda missing Day 7 task:\n%s", out)
	}
	if !strings.Contains(out, "Demo with Brenda Smith") {
		t.Fatalf("agenda missing demo:\n%s", out)
	}
}

func TestAddLogAndShow(t *testing.T) {
	c, notices := newTestCLI(t)

	leadID := strings.TrimSpace(mustExecute(t, c, "add", "--name", "Alex Johnson", "--phone", "4155550132", "--course", "UX Design", "--traits", "Pays for Value"))

	out := mustExecute(t, c, "show", leadID)
	for _, want := range []string{"Alex Johnson", "+14155550132", "Follow up with Alex Johnson (Day 1)", "Lead Created"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, c, "next", leadID)
	if !strings.HasPrefix(out, "Day 1") {
		t.Fatalf("next output = %q", out)
	}

	out = mustExecute(t, c, "log", leadID, "--interest", "Love", "--intent", "High", "--engagement", "Positive", "--outcome", "PayLink")
	if !strings.Contains(out, "score 100, segment Payment Pending") {
		t.Fatalf("log output = %q", out)
	}

	c.close()
	for _, want := range []string{"Lead Added Successfully!", "Interaction Logged!"} {
		if !strings.Contains(notices.String(), want) {
			t.Fatalf("notifications missing %q:\n%s", want, notices.String())
		}
	}
}

func TestAcknowledgeAndComplete(t *testing.T) {
	c, _ := newTestCLI(t)
	leadID := strings.TrimSpace(mustExecute(t, c, "add", "--name", "Diana Prince", "--phone", "4155550199", "--course", "AI Engineering"))

	out := mustExecute(t, c, "ack", leadID, openTaskID(t, c, leadID))
	if !strings.Contains(out, "(Day 3)") {
		t.Fatalf("ack output = %q", out)
	}

	out = mustExecute(t, c, "complete", leadID, openTaskID(t, c, leadID), "--terminal")
	if !strings.Contains(out, "lead Archived") {
		t.Fatalf("complete output = %q", out)
	}

	if _, err := execute(t, c, "log", leadID, "--type", "Touchpoint", "--notes", "late"); err == nil {
		t.Fatalf("logging on an archived lead should fail")
	}
}

func TestCommandErrors(t *testing.T) {
	c, _ := newTestCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad lead id", []string{"show", "not-a-uuid"}},
		{"unknown lead", []string{"next", uuid.NewString()}},
		{"bad status", []string{"list", "--status", "Cold"}},
		{"bad interest", []string{"log", uuid.NewString(), "--interest", "Meh"}},
		{"invalid lead", []string{"add", "--name", "A", "--phone", "1", "--course", "UX"}},
		{"missing args", []string{"complete", uuid.NewString()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, c, tt.args...); err == nil {
				t.Fatalf("leadctl %v: expected error", tt.args)
			}
		})
	}
}

package notification

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/scheduler"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (s *recordingSink) Notify(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

type scheduledReminder struct {
	payload scheduler.TaskReminderPayload
	runAt   time.Time
}

type fakeReminders struct {
	calls []scheduledReminder
	err   error
}

func (f *fakeReminders) ScheduleTaskReminder(_ context.Context, payload scheduler.TaskReminderPayload, runAt time.Time) error {
	f.calls = append(f.calls, scheduledReminder{payload: payload, runAt: runAt})
	return f.err
}

type testConfig struct{ leadTime time.Duration }

func (c testConfig) GetTaskReminderLeadTime() time.Duration { return c.leadTime }

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestModule(sink Sink, reminders scheduler.ReminderScheduler) *Module {
	log := logger.NewWithWriter("development", io.Discard)
	return New(sink, nil, reminders, testConfig{leadTime: 30 * time.Minute}, clock.NewFixed(testNow), log)
}

func TestHandleProducesMessages(t *testing.T) {
	leadID := uuid.New()
	tests := []struct {
		name      string
		event     events.Event
		wantKind  Kind
		wantTitle string
		wantBody  string
	}{
		{
			name:      "lead created",
			event:     events.LeadCreated{LeadID: leadID, Name: "Aarav Sharma"},
			wantKind:  KindLeadCreated,
			wantTitle: "Lead Added Successfully!",
			wantBody:  "Aarav Sharma has been added to your pipeline.",
		},
		{
			name:      "interaction logged",
			event:     events.InteractionLogged{LeadID: leadID, InteractionType: "Engagement"},
			wantKind:  KindInteractionLogged,
			wantTitle: "Interaction Logged!",
			wantBody:  "Workflow updated successfully.",
		},
		{
			name:      "details updated",
			event:     events.LeadDetailsUpdated{LeadID: leadID},
			wantKind:  KindLeadUpdated,
			wantTitle: "Lead Updated",
			wantBody:  "Details have been saved.",
		},
		{
			name:      "archived",
			event:     events.LeadArchived{LeadID: leadID, LeadName: "Diya Patel", Score: 42},
			wantKind:  KindLeadArchived,
			wantTitle: "Lead Archived",
			wantBody:  "score of 42",
		},
		{
			name: "task due",
			event: events.TaskDue{
				LeadID:      leadID,
				LeadName:    "Diya Patel",
				Description: "Day 3 Follow-up",
				DueDate:     time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC),
			},
			wantKind:  KindTaskDue,
			wantTitle: "Follow-up Due",
			wantBody:  "Day 3 Follow-up for Diya Patel is due May 13, 09:00.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			m := newTestModule(sink, nil)

			if err := m.Handle(context.Background(), tt.event); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(sink.msgs) != 1 {
				t.Fatalf("messages = %d, want 1", len(sink.msgs))
			}
			got := sink.msgs[0]
			if got.Kind != tt.wantKind || got.Title != tt.wantTitle {
				t.Fatalf("message = %+v, want kind %q title %q", got, tt.wantKind, tt.wantTitle)
			}
			if !strings.Contains(got.Body, tt.wantBody) {
				t.Fatalf("body = %q, want it to contain %q", got.Body, tt.wantBody)
			}
			if got.LeadID != leadID {
				t.Fatalf("lead id = %s, want %s", got.LeadID, leadID)
			}
		})
	}
}

func TestFollowUpScheduledSchedulesReminder(t *testing.T) {
	taskID, leadID := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		dueDate time.Time
		wantRun time.Time
	}{
		{"future task", testNow.Add(72 * time.Hour), testNow.Add(72*time.Hour - 30*time.Minute)},
		{"inside lead time", testNow.Add(10 * time.Minute), testNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			reminders := &fakeReminders{}
			m := newTestModule(sink, reminders)

			err := m.Handle(context.Background(), events.FollowUpScheduled{
				LeadID:  leadID,
				TaskID:  taskID,
				DueDate: tt.dueDate,
			})
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if len(sink.msgs) != 0 {
				t.Fatalf("scheduling must not notify, got %d messages", len(sink.msgs))
			}
			if len(reminders.calls) != 1 {
				t.Fatalf("reminders = %d, want 1", len(reminders.calls))
			}
			call := reminders.calls[0]
			if call.payload.TaskID != taskID.String() || call.payload.LeadID != leadID.String() {
				t.Fatalf("payload = %+v", call.payload)
			}
			if !call.runAt.Equal(tt.wantRun) {
				t.Fatalf("runAt = %s, want %s", call.runAt, tt.wantRun)
			}
		})
	}
}

func TestFollowUpScheduledWithoutScheduler(t *testing.T) {
	m := newTestModule(&recordingSink{}, nil)
	err := m.Handle(context.Background(), events.FollowUpScheduled{TaskID: uuid.New(), DueDate: testNow})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
}

func TestFollowUpScheduledReportsSchedulerFailure(t *testing.T) {
	errRedis := errors.New("redis down")
	m := newTestModule(&recordingSink{}, &fakeReminders{err: errRedis})

	err := m.Handle(context.Background(), events.FollowUpScheduled{TaskID: uuid.New(), DueDate: testNow.Add(time.Hour)})
	if !errors.Is(err, errRedis) {
		t.Fatalf("Handle() error = %v, want %v", err, errRedis)
	}
}

func TestRegisterHandlersReceivesBusEvents(t *testing.T) {
	log := logger.NewWithWriter("development", io.Discard)
	bus := events.NewInMemoryBus(log)
	sink := &recordingSink{}
	m := newTestModule(sink, nil)
	m.RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.LeadCreated{LeadID: uuid.New(), Name: "Kabir Singh"})
	if err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(sink.msgs) != 1 || sink.msgs[0].Kind != KindLeadCreated {
		t.Fatalf("messages = %+v", sink.msgs)
	}

	// TaskCompleted has no user-facing message.
	if err := bus.PublishSync(context.Background(), events.TaskCompleted{TaskID: uuid.New()}); err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(sink.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(sink.msgs))
	}
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	first := &recordingSink{err: errA}
	second := &recordingSink{}

	err := MultiSink{first, second}.Notify(context.Background(), Message{Title: "x"})
	if !errors.Is(err, errA) {
		t.Fatalf("Notify() error = %v, want %v", err, errA)
	}
	if len(second.msgs) != 1 {
		t.Fatalf("second sink skipped after first failed")
	}
}

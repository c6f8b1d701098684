// Package notification turns lead domain events into user-facing messages and
// schedules due-date reminders for new follow-up tasks.
package notification

import (
	"context"
	"fmt"
	"time"

	"lead_pipeline_backend/internal/events"
	apphttp "lead_pipeline_backend/internal/http"
	"lead_pipeline_backend/internal/notification/sse"
	"lead_pipeline_backend/internal/scheduler"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"
)

// Module subscribes to lead events and forwards them to a Sink.
type Module struct {
	sink      Sink
	stream    *sse.Service
	reminders scheduler.ReminderScheduler
	leadTime  time.Duration
	clock     clock.Clock
	log       *logger.Logger
}

// New creates the notification module. stream and reminders may be nil; without
// a reminder scheduler FollowUpScheduled events are ignored.
func New(sink Sink, stream *sse.Service, reminders scheduler.ReminderScheduler, cfg config.NotificationConfig, clk clock.Clock, log *logger.Logger) *Module {
	return &Module{
		sink:      sink,
		stream:    stream,
		reminders: reminders,
		leadTime:  cfg.GetTaskReminderLeadTime(),
		clock:     clk,
		log:       log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes exposes the live notification stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	if m.stream == nil {
		return
	}
	ctx.V1.GET("/notifications/stream", m.stream.Handler())
}

// RegisterHandlers subscribes the module to every event it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	h := events.HandlerFunc(m.Handle)
	bus.Subscribe(events.LeadCreated{}.EventName(), h)
	bus.Subscribe(events.InteractionLogged{}.EventName(), h)
	bus.Subscribe(events.FollowUpScheduled{}.EventName(), h)
	bus.Subscribe(events.LeadArchived{}.EventName(), h)
	bus.Subscribe(events.LeadDetailsUpdated{}.EventName(), h)
	bus.Subscribe(events.TaskDue{}.EventName(), h)
}

// Handle dispatches a single event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		return m.sink.Notify(ctx, Message{
			Kind:   KindLeadCreated,
			Title:  "Lead Added Successfully!",
			Body:   fmt.Sprintf("%s has been added to your pipeline.", e.Name),
			LeadID: e.LeadID,
		})
	case events.InteractionLogged:
		return m.sink.Notify(ctx, Message{
			Kind:   KindInteractionLogged,
			Title:  "Interaction Logged!",
			Body:   "Workflow updated successfully.",
			LeadID: e.LeadID,
		})
	case events.LeadDetailsUpdated:
		return m.sink.Notify(ctx, Message{
			Kind:   KindLeadUpdated,
			Title:  "Lead Updated",
			Body:   "Details have been saved.",
			LeadID: e.LeadID,
		})
	case events.LeadArchived:
		return m.sink.Notify(ctx, Message{
			Kind:   KindLeadArchived,
			Title:  "Lead Archived",
			Body:   fmt.Sprintf("%s finished the follow-up sequence with a score of %d.", e.LeadName, e.Score),
			LeadID: e.LeadID,
		})
	case events.TaskDue:
		return m.sink.Notify(ctx, Message{
			Kind:   KindTaskDue,
			Title:  "Follow-up Due",
			Body:   fmt.Sprintf("%s for %s is due %s.", e.Description, e.LeadName, e.DueDate.Format("Jan 2, 15:04")),
			LeadID: e.LeadID,
		})
	case events.FollowUpScheduled:
		return m.scheduleReminder(ctx, e)
	default:
		m.log.Debug("notification ignored event", "event", event.EventName())
		return nil
	}
}

func (m *Module) scheduleReminder(ctx context.Context, e events.FollowUpScheduled) error {
	if m.reminders == nil {
		return nil
	}

	runAt := e.DueDate.Add(-m.leadTime)
	if now := m.clock.Now(); runAt.Before(now) {
		runAt = now
	}

	payload := scheduler.TaskReminderPayload{
		TaskID: e.TaskID.String(),
		LeadID: e.LeadID.String(),
	}
	if err := m.reminders.ScheduleTaskReminder(ctx, payload, runAt); err != nil {
		return fmt.Errorf("schedule reminder for task %s: %w", e.TaskID, err)
	}
	return nil
}

var _ apphttp.Module = (*Module)(nil)

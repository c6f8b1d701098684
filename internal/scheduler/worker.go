package scheduler

import (
	"context"
	"fmt"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/leads"
	"lead_pipeline_backend/platform/apperr"
	"lead_pipeline_backend/platform/config"
	"lead_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	tasks  leads.TaskLookup
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, tasks leads.TaskLookup, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		tasks:  tasks,
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskLeadTaskReminder, w.handleTaskReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleTaskReminder publishes TaskDue when the task is still open. Reminders
// for completed tasks, archived leads or deleted records are dropped.
func (w *Worker) handleTaskReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTaskReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	status, err := w.tasks.LookupTask(ctx, taskID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Info("reminder dropped, task gone", "taskId", taskID)
			return nil
		}
		return err
	}
	if !status.Open {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.TaskDue{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      status.LeadID,
		LeadName:    status.LeadName,
		TaskID:      status.TaskID,
		Description: status.Description,
		DueDate:     status.DueDate,
	})
}

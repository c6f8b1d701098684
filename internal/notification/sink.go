package notification

import (
	"context"
	"errors"

	"lead_pipeline_backend/internal/notification/sse"
	"lead_pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

// Kind classifies a user-facing message.
type Kind string

const (
	KindLeadCreated       Kind = "lead_created"
	KindInteractionLogged Kind = "interaction_logged"
	KindLeadUpdated       Kind = "lead_updated"
	KindLeadArchived      Kind = "lead_archived"
	KindTaskDue           Kind = "task_due"
)

// Message is a short notice shown to the pipeline user.
type Message struct {
	Kind   Kind
	Title  string
	Body   string
	LeadID uuid.UUID
}

// Sink delivers messages. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// LogSink writes messages to the structured log.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(ctx context.Context, msg Message) error {
	s.log.WithContext(ctx).Info("notification",
		"kind", msg.Kind,
		"title", msg.Title,
		"body", msg.Body,
		"leadId", msg.LeadID,
	)
	return nil
}

// StreamSink broadcasts messages to connected SSE clients.
type StreamSink struct {
	stream *sse.Service
}

func NewStreamSink(stream *sse.Service) *StreamSink {
	return &StreamSink{stream: stream}
}

func (s *StreamSink) Notify(_ context.Context, msg Message) error {
	s.stream.Publish(sse.Event{
		Type:    sse.EventType(msg.Kind),
		LeadID:  msg.LeadID,
		Title:   msg.Title,
		Message: msg.Body,
	})
	return nil
}

// MultiSink fans a message out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*StreamSink)(nil)
	_ Sink = MultiSink(nil)
)

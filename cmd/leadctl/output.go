package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/notification"
)

const timeLayout = "Mon Jan 2 15:04"

// terminalSink prints notifications as they arrive.
type terminalSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newTerminalSink(w io.Writer) *terminalSink {
	return &terminalSink{w: w}
}

func (s *terminalSink) Notify(_ context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "✓ %s %s\n", msg.Title, msg.Body)
	return err
}

var _ notification.Sink = (*terminalSink)(nil)

func printTask(w io.Writer, task *domain.Task) {
	if task == nil {
		fmt.Fprintln(w, "  open task:  none")
		return
	}
	fmt.Fprintf(w, "  open task:  %s (%s)\n", task.Description, task.ID)
	fmt.Fprintf(w, "  due:        %s [%s]\n", task.DueDate.Format(timeLayout), task.Segment)
}

func printLead(w io.Writer, lead domain.Lead, r domain.Responsiveness) {
	fmt.Fprintf(w, "%s (%s)\n", lead.Name, lead.ID)
	fmt.Fprintf(w, "  course:     %s\n", lead.Course)
	fmt.Fprintf(w, "  phone:      %s\n", lead.Phone)
	fmt.Fprintf(w, "  status:     %s, %s\n", lead.Status, lead.Segment)
	fmt.Fprintf(w, "  score:      %d (%s)\n", lead.Score, r)
	if len(lead.Traits) > 0 {
		fmt.Fprintf(w, "  traits:     %s\n", strings.Join(lead.Traits, ", "))
	}
	if len(lead.Insights) > 0 {
		fmt.Fprintf(w, "  insights:   %s\n", strings.Join(lead.Insights, "; "))
	}
	if lead.Note != "" {
		fmt.Fprintf(w, "  note:       %s\n", lead.Note)
	}
}

func printInteraction(w io.Writer, in domain.Interaction) {
	line := fmt.Sprintf("  %s  %-11s %+4d  %d -> %d", in.Date.Format(timeLayout), in.Type, in.InteractionScore, in.PreviousScore, in.NewScore)
	if in.Type == domain.InteractionEngagement {
		line += fmt.Sprintf("  %s/%s/%s", in.Interest, in.Intent, in.Engagement)
	}
	if in.Outcome != domain.OutcomeNone {
		line += "  " + string(in.Outcome)
	}
	if in.Notes != "" {
		line += "  " + in.Notes
	}
	fmt.Fprintln(w, line)
}

func formatDue(t time.Time) string {
	return t.Format(timeLayout)
}

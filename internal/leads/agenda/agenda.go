// Package agenda builds the read-only task and event views of the pipeline.
package agenda

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/platform/clock"
)

// Reader is the subset of the store the agenda needs.
type Reader interface {
	ListTaskLeads(ctx context.Context, filter repository.TaskFilter) ([]repository.TaskLead, error)
}

// EventType classifies an Awaiting Event task for display.
type EventType string

const (
	EventTypeDemo       EventType = "Demo"
	EventTypeVisit      EventType = "Visit"
	EventTypeOnlineMeet EventType = "Online Meet"
	EventTypeOther      EventType = "Event"
)

// ClassifyEvent derives the event type from the task description.
func ClassifyEvent(description string) EventType {
	d := strings.ToLower(description)
	switch {
	case strings.Contains(d, "demo"):
		return EventTypeDemo
	case strings.Contains(d, "visit"):
		return EventTypeVisit
	case strings.Contains(d, "meet"):
		return EventTypeOnlineMeet
	default:
		return EventTypeOther
	}
}

// TaskItem is an open task joined with its lead.
type TaskItem struct {
	Task           domain.Task
	LeadName       string
	Responsiveness domain.Responsiveness
}

// EventItem is a scheduled demo or visit joined with its lead.
type EventItem struct {
	Task      domain.Task
	LeadName  string
	EventType EventType
}

// EventGroups splits upcoming events by calendar day.
type EventGroups struct {
	Today    []EventItem
	Tomorrow []EventItem
	Later    []EventItem
}

// Service answers agenda queries.
type Service struct {
	reader Reader
	clock  clock.Clock
	loc    *time.Location
}

// New creates an agenda service. Day boundaries are computed in loc.
func New(reader Reader, clk clock.Clock, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{reader: reader, clock: clk, loc: loc}
}

// OpenTasks returns the open follow-up work of active leads ordered by due
// date. Scheduled demos and visits are listed by Events instead.
func (s *Service) OpenTasks(ctx context.Context) ([]TaskItem, error) {
	open := false
	rows, err := s.reader.ListTaskLeads(ctx, repository.TaskFilter{Completed: &open, ActiveLeadsOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}

	now := s.clock.Now()
	items := make([]TaskItem, 0, len(rows))
	for _, r := range rows {
		if r.Task.IsEvent() || r.LeadStatus != domain.LeadStatusActive {
			continue
		}
		items = append(items, TaskItem{
			Task:           r.Task,
			LeadName:       r.LeadName,
			Responsiveness: domain.ClassifyResponsiveness(r.LeadLastInteractionAt, now),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Task.DueDate.Before(items[j].Task.DueDate) })
	return items, nil
}

// Events returns open Awaiting Event tasks of active leads grouped into
// today, tomorrow and later, each ordered by due date. Overdue events from
// earlier days land in Later.
func (s *Service) Events(ctx context.Context) (EventGroups, error) {
	open := false
	segment := domain.SegmentAwaitingEvent
	rows, err := s.reader.ListTaskLeads(ctx, repository.TaskFilter{Completed: &open, Segment: &segment, ActiveLeadsOnly: true})
	if err != nil {
		return EventGroups{}, fmt.Errorf("list events: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Task.DueDate.Before(rows[j].Task.DueDate) })

	today := dayStart(s.clock.Now(), s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := today.AddDate(0, 0, 2)

	groups := EventGroups{Today: []EventItem{}, Tomorrow: []EventItem{}, Later: []EventItem{}}
	for _, r := range rows {
		if r.LeadStatus != domain.LeadStatusActive {
			continue
		}
		item := EventItem{Task: r.Task, LeadName: r.LeadName, EventType: ClassifyEvent(r.Task.Description)}
		due := r.Task.DueDate.In(s.loc)
		switch {
		case !due.Before(today) && due.Before(tomorrow):
			groups.Today = append(groups.Today, item)
		case !due.Before(tomorrow) && due.Before(dayAfter):
			groups.Tomorrow = append(groups.Tomorrow, item)
		default:
			groups.Later = append(groups.Later, item)
		}
	}
	return groups, nil
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

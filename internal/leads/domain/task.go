package domain

import (
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Task is the single outstanding next action for a lead.
type Task struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Description string
	DueDate     time.Time
	Segment     Segment
	Completed   bool
	CompletedAt *time.Time
	// FollowUpDay is the cadence day of a standard follow-up task, nil otherwise.
	FollowUpDay *int
	CreatedAt   time.Time
}

// IsTerminalFollowUp reports whether completing the task archives its lead.
// Records created before FollowUpDay existed fall back to the description.
func (t Task) IsTerminalFollowUp() bool {
	if t.FollowUpDay != nil {
		return *t.FollowUpDay == FinalFollowUpDay
	}
	day, ok := DayInText(t.Description)
	return ok && day == FinalFollowUpDay
}

var dayMarker = regexp.MustCompile(`(?i)\bDay (\d+)\b`)

// DayInText returns N from the first "Day N" marker in text.
func DayInText(text string) (int, bool) {
	m := dayMarker.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsEvent reports whether the task is a scheduled demo or visit.
func (t Task) IsEvent() bool {
	return t.Segment == SegmentAwaitingEvent
}

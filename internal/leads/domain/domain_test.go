package domain

import (
	"testing"
	"time"
)

func TestClassifyResponsiveness(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		want Responsiveness
	}{
		{"just now", now, ResponsivenessHot},
		{"23h", now.Add(-23 * time.Hour), ResponsivenessHot},
		{"24h boundary", now.Add(-24 * time.Hour), ResponsivenessWarm},
		{"71h", now.Add(-71 * time.Hour), ResponsivenessWarm},
		{"72h boundary", now.Add(-72 * time.Hour), ResponsivenessCold},
		{"unknown", time.Time{}, ResponsivenessCold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyResponsiveness(tt.last, now); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsTerminalFollowUp(t *testing.T) {
	day := func(n int) *int { return &n }
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"structured day 7", Task{FollowUpDay: day(7), Description: "Follow up with A"}, true},
		{"structured day 5 wins over text", Task{FollowUpDay: day(5), Description: "mentions Day 7"}, false},
		{"legacy text", Task{Description: "Follow up with George Costanza (Day 7)"}, true},
		{"legacy other", Task{Description: "Follow up with George Costanza (Day 3)"}, false},
		{"demo", Task{Description: "Demo with Brenda Smith"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsTerminalFollowUp(); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseInterest("Love"); err != nil {
		t.Fatalf("Love should parse: %v", err)
	}
	if _, err := ParseInterest("Meh"); err == nil {
		t.Fatalf("Meh should not parse")
	}
	if o, err := ParseOutcome(""); err != nil || o != OutcomeNone {
		t.Fatalf("empty outcome = %q, %v", o, err)
	}
	if _, err := ParseSegment("Payment Pending"); err != nil {
		t.Fatalf("segment should parse: %v", err)
	}
	if _, err := ParseInteractionType("Call"); err == nil {
		t.Fatalf("Call is not an interaction type")
	}
}

func TestOutcomeRequirements(t *testing.T) {
	tests := []struct {
		o            Outcome
		detail, date bool
	}{
		{OutcomeNone, false, false},
		{OutcomeDemo, true, true},
		{OutcomeVisit, true, true},
		{OutcomePayLink, false, false},
		{OutcomeFollowLater, true, true},
		{OutcomeNeedsInfo, true, false},
	}
	for _, tt := range tests {
		if tt.o.RequiresDetail() != tt.detail || tt.o.RequiresDate() != tt.date {
			t.Errorf("%q: detail=%v date=%v", tt.o, tt.o.RequiresDetail(), tt.o.RequiresDate())
		}
	}
}

func TestIsTerminalFollowUpFromDescription(t *testing.T) {
	seven := FinalFollowUpDay
	three := 3
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"final day", Task{Description: "Follow up with Ira (Day 7)"}, true},
		{"longer day number", Task{Description: "Follow up with Ira (Day 70)"}, false},
		{"earlier day", Task{Description: "Follow up with Ira (Day 3)"}, false},
		{"no marker", Task{Description: "Demo with Ira"}, false},
		{"marker inside a word", Task{Description: "Holiday 7 promo call"}, false},
		{"field wins over text", Task{Description: "Follow up with Ira (Day 7)", FollowUpDay: &three}, false},
		{"field only", Task{Description: "Call Ira", FollowUpDay: &seven}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsTerminalFollowUp(); got != tt.want {
				t.Fatalf("IsTerminalFollowUp() = %v, want %v", got, tt.want)
			}
		})
	}
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lead_pipeline_backend/internal/events"
	"lead_pipeline_backend/internal/leads/agenda"
	"lead_pipeline_backend/internal/leads/management"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/internal/leads/transport"
	"lead_pipeline_backend/platform/clock"
	"lead_pipeline_backend/platform/db"
	"lead_pipeline_backend/platform/httpkit"
	"lead_pipeline_backend/platform/logger"
	"lead_pipeline_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type leadsConfig struct{}

func (leadsConfig) GetDefaultPhoneRegion() string { return "US" }
func (leadsConfig) GetLeadWriteMaxAttempts() int  { return 3 }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, db.MemoryDSN)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := repository.MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("MigrateSQLite: %v", err)
	}

	log := logger.NewWithWriter("test", io.Discard)
	store := repository.NewSQLite(conn)
	clk := clock.NewFixed(testNow)
	val := validator.New()
	h := New(
		management.New(store, events.NewInMemoryBus(log), clk, val, leadsConfig{}, log),
		agenda.New(store, clk, time.UTC),
		val,
	)

	engine := gin.New()
	engine.Use(httpkit.RequestID())
	v1 := engine.Group("/api/v1")
	h.RegisterRoutes(v1.Group("/leads"), func(c *gin.Context) { c.Next() })
	h.RegisterAgendaRoutes(v1)
	return engine
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func createLead(t *testing.T, r http.Handler, name string) transport.LeadResponse {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/v1/leads", transport.CreateLeadRequest{
		Name: name, Phone: "415-555-0132", Course: "Data Science",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[transport.LeadResponse](t, rec)
}

func TestCreateAndGetLead(t *testing.T) {
	r := newTestRouter(t)
	lead := createLead(t, r, "Brenda Smith")

	if lead.Score != 50 || lead.Segment != "Standard Follow-up" || lead.Status != "Active" {
		t.Fatalf("unexpected lead: %+v", lead)
	}

	rec := do(t, r, http.MethodGet, "/api/v1/leads/"+lead.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	detail := decode[transport.LeadDetailResponse](t, rec)
	if detail.OpenTask == nil || detail.OpenTask.Description != "Follow up with Brenda Smith (Day 1)" {
		t.Fatalf("open task = %+v", detail.OpenTask)
	}
	if len(detail.Interactions) != 1 || detail.Interactions[0].Type != "Creation" {
		t.Fatalf("interactions = %+v", detail.Interactions)
	}
}

func TestCreateLeadValidation(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/api/v1/leads", transport.CreateLeadRequest{Name: "B", Phone: "1", Course: "DS"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[httpkit.ErrorResponse](t, rec)
	details, ok := resp.Details.(map[string]any)
	if !ok || details["name"] == nil || details["phone"] == nil || details["course"] == nil {
		t.Fatalf("details = %#v", resp.Details)
	}
}

func TestLogInteraction(t *testing.T) {
	r := newTestRouter(t)
	lead := createLead(t, r, "Omar")
	path := "/api/v1/leads/" + lead.ID.String() + "/interactions"

	tests := []struct {
		name        string
		body        transport.LogInteractionRequest
		wantStatus  int
		wantSegment string
	}{
		{
			name: "pay link",
			body: transport.LogInteractionRequest{
				Type: "Engagement", Interest: "Love", Intent: "High", Engagement: "Positive", Outcome: "PayLink",
			},
			wantStatus:  http.StatusCreated,
			wantSegment: "Payment Pending",
		},
		{
			name:       "unknown interest",
			body:       transport.LogInteractionRequest{Type: "Engagement", Interest: "Meh", Intent: "High", Engagement: "Positive"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing signals",
			body:       transport.LogInteractionRequest{Type: "Engagement", Interest: "High"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "creation is not loggable",
			body:       transport.LogInteractionRequest{Type: "Creation"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "touchpoint",
			body:        transport.LogInteractionRequest{Type: "Touchpoint", Notes: "Sent brochure"},
			wantStatus:  http.StatusCreated,
			wantSegment: "Standard Follow-up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantSegment == "" {
				return
			}
			resp := decode[transport.LogInteractionResponse](t, rec)
			if resp.NewSegment != tt.wantSegment || resp.NewTask == nil {
				t.Fatalf("response = %+v", resp)
			}
		})
	}
}

func TestUnknownAndMalformedIDs(t *testing.T) {
	r := newTestRouter(t)
	if rec := do(t, r, http.MethodGet, "/api/v1/leads/not-a-uuid", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id status = %d", rec.Code)
	}
	rec := do(t, r, http.MethodPost, "/api/v1/leads/6f1c1a8e-7c43-4a44-9a53-0f3a5f1f0b11/interactions",
		transport.LogInteractionRequest{Type: "Touchpoint"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown lead status = %d", rec.Code)
	}
}

func TestCompleteTaskAndArchive(t *testing.T) {
	r := newTestRouter(t)
	lead := createLead(t, r, "Priya")
	detail := decode[transport.LeadDetailResponse](t, do(t, r, http.MethodGet, "/api/v1/leads/"+lead.ID.String(), nil))
	taskPath := "/api/v1/leads/" + lead.ID.String() + "/tasks/" + detail.OpenTask.ID.String() + "/complete"

	rec := do(t, r, http.MethodPost, taskPath, transport.CompleteTaskRequest{Acknowledge: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("acknowledge status = %d, body %s", rec.Code, rec.Body.String())
	}
	ack := decode[transport.LogInteractionResponse](t, rec)
	if ack.NewTask == nil || ack.NewTask.FollowUpDay == nil || *ack.NewTask.FollowUpDay != 3 {
		t.Fatalf("acknowledge response = %+v", ack)
	}

	next := "/api/v1/leads/" + lead.ID.String() + "/tasks/" + ack.NewTask.ID.String() + "/complete"
	if rec := do(t, r, http.MethodPost, next, transport.CompleteTaskRequest{IsTerminalFollowUp: true}); rec.Code != http.StatusNoContent {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := decode[transport.LeadDetailResponse](t, do(t, r, http.MethodGet, "/api/v1/leads/"+lead.ID.String(), nil))
	if got.Lead.Status != "Archived" || got.OpenTask != nil {
		t.Fatalf("lead after terminal completion = %+v", got)
	}

	rec = do(t, r, http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/interactions", transport.LogInteractionRequest{Type: "Touchpoint"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("archived lead status = %d, want 409", rec.Code)
	}
}

func TestNextFollowUpAndAgenda(t *testing.T) {
	r := newTestRouter(t)
	lead := createLead(t, r, "Leo")

	next := decode[transport.NextFollowUpResponse](t, do(t, r, http.MethodGet, "/api/v1/leads/"+lead.ID.String()+"/next-follow-up", nil))
	if next.Day != 1 || next.Description != "Follow up with Leo (Day 1)" {
		t.Fatalf("next follow-up = %+v", next)
	}

	rec := do(t, r, http.MethodPost, "/api/v1/leads/"+lead.ID.String()+"/interactions", transport.LogInteractionRequest{
		Type: "Engagement", Interest: "High", Intent: "High", Engagement: "Positive",
		Outcome: "Visit", OutcomeDetail: "2024-05-11T10:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("log status = %d, body %s", rec.Code, rec.Body.String())
	}

	grouped := decode[transport.AgendaEventsResponse](t, do(t, r, http.MethodGet, "/api/v1/events", nil))
	if len(grouped.Tomorrow) != 1 || grouped.Tomorrow[0].EventType != "Visit" || grouped.Tomorrow[0].LeadName != "Leo" {
		t.Fatalf("events = %+v", grouped)
	}

	tasks := decode[transport.AgendaTaskListResponse](t, do(t, r, http.MethodGet, "/api/v1/tasks", nil))
	if len(tasks.Items) != 0 {
		t.Fatalf("task agenda should not list events: %+v", tasks.Items)
	}
}

func TestUpdateDetailsAndList(t *testing.T) {
	r := newTestRouter(t)
	lead := createLead(t, r, "Nina")
	note := "Call after 6pm"

	rec := do(t, r, http.MethodPatch, "/api/v1/leads/"+lead.ID.String(), transport.UpdateLeadDetailsRequest{Note: &note})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode[transport.LeadResponse](t, rec); got.Note != note || got.Responsiveness != "hot" {
		t.Fatalf("patched lead: note = %q, responsiveness = %q", got.Note, got.Responsiveness)
	}

	list := decode[transport.LeadListResponse](t, do(t, r, http.MethodGet, "/api/v1/leads?status=Active", nil))
	if len(list.Items) != 1 || list.Items[0].Responsiveness != "hot" {
		t.Fatalf("list = %+v", list.Items)
	}
	if rec := do(t, r, http.MethodGet, "/api/v1/leads?status=Lost", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter = %d", rec.Code)
	}
}

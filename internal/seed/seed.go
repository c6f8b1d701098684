// Package seed loads the sample sales pipeline into an empty store.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/repository"
	"lead_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed pipeline.yaml
var pipelineYAML []byte

// namespace derives stable record IDs from fixture keys so a second run finds
// the leads of the first.
var namespace = uuid.MustParse("6f1c2a4e-93d5-4b8e-a0f7-2d4c8e5b9a31")

// Result counts what Run did.
type Result struct {
	Created int
	Skipped int
}

type fixture struct {
	Leads []leadFixture `yaml:"leads"`
}

type leadFixture struct {
	Key                    string             `yaml:"key"`
	Name                   string             `yaml:"name"`
	Phone                  string             `yaml:"phone"`
	Course                 string             `yaml:"course"`
	Score                  int                `yaml:"score"`
	Status                 string             `yaml:"status"`
	Segment                string             `yaml:"segment"`
	LastInteractionDaysAgo int                `yaml:"lastInteractionDaysAgo"`
	Traits                 []string           `yaml:"traits"`
	Insights               []string           `yaml:"insights"`
	Note                   string             `yaml:"note"`
	Interaction            interactionFixture `yaml:"interaction"`
	Task                   *taskFixture       `yaml:"task"`
}

type interactionFixture struct {
	Type                string `yaml:"type"`
	Interest            string `yaml:"interest"`
	Intent              string `yaml:"intent"`
	Engagement          string `yaml:"engagement"`
	InteractionScore    int    `yaml:"interactionScore"`
	PreviousScore       int    `yaml:"previousScore"`
	Outcome             string `yaml:"outcome"`
	OutcomeDetail       string `yaml:"outcomeDetail"`
	OutcomeDetailInDays *int   `yaml:"outcomeDetailInDays"`
	Notes               string `yaml:"notes"`
	FollowUpDay         *int   `yaml:"followUpDay"`
}

type taskFixture struct {
	Description string `yaml:"description"`
	DueInDays   int    `yaml:"dueInDays"`
	FollowUpDay *int   `yaml:"followUpDay"`
}

// Run commits every fixture lead that is not already stored. Each lead, its
// interaction and its open task go in one Commit.
func Run(ctx context.Context, store repository.Store, now time.Time, log *logger.Logger) (Result, error) {
	var fx fixture
	if err := yaml.Unmarshal(pipelineYAML, &fx); err != nil {
		return Result{}, fmt.Errorf("parse seed fixture: %w", err)
	}

	var res Result
	for _, lf := range fx.Leads {
		change, err := lf.change(now)
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", lf.Key, err)
		}

		_, err = store.GetLead(ctx, change.Lead.ID)
		switch {
		case err == nil:
			res.Skipped++
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return res, fmt.Errorf("seed %s: %w", lf.Key, err)
		}

		if _, err := store.Commit(ctx, change); err != nil {
			return res, fmt.Errorf("seed %s: %w", lf.Key, err)
		}
		res.Created++
	}

	log.Info("seeded sample pipeline", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func (lf leadFixture) change(now time.Time) (repository.Change, error) {
	status := domain.LeadStatusActive
	if lf.Status != "" {
		s, err := domain.ParseLeadStatus(lf.Status)
		if err != nil {
			return repository.Change{}, err
		}
		status = s
	}
	segment, err := domain.ParseSegment(lf.Segment)
	if err != nil {
		return repository.Change{}, err
	}

	leadID := uuid.NewSHA1(namespace, []byte(lf.Key))
	lastAt := now.AddDate(0, 0, -lf.LastInteractionDaysAgo)

	lead := domain.NewLead(leadID, lf.Name, lf.Phone, lf.Course, lf.Traits, lf.Note, lastAt)
	lead.Score = lf.Score
	lead.Status = status
	lead.Segment = segment
	if lf.Insights != nil {
		lead.Insights = lf.Insights
	}

	in, err := lf.Interaction.build(leadID, lf.Key, lf.Score, lastAt, now)
	if err != nil {
		return repository.Change{}, err
	}

	change := repository.Change{
		Lead:        lead,
		Create:      true,
		Interaction: &in,
		At:          now,
	}
	if lf.Task != nil {
		change.NewTask = &domain.Task{
			ID:          uuid.NewSHA1(namespace, []byte(lf.Key+"/task")),
			LeadID:      leadID,
			Description: lf.Task.Description,
			DueDate:     now.AddDate(0, 0, lf.Task.DueInDays),
			Segment:     segment,
			FollowUpDay: lf.Task.FollowUpDay,
			CreatedAt:   lastAt,
		}
	}
	return change, nil
}

func (f interactionFixture) build(leadID uuid.UUID, key string, newScore int, at, now time.Time) (domain.Interaction, error) {
	typ, err := domain.ParseInteractionType(f.Type)
	if err != nil {
		return domain.Interaction{}, err
	}
	outcome, err := domain.ParseOutcome(f.Outcome)
	if err != nil {
		return domain.Interaction{}, err
	}

	in := domain.Interaction{
		ID:               uuid.NewSHA1(namespace, []byte(key+"/interaction")),
		LeadID:           leadID,
		Date:             at,
		Type:             typ,
		Outcome:          outcome,
		OutcomeDetail:    f.OutcomeDetail,
		Notes:            f.Notes,
		InteractionScore: f.InteractionScore,
		PreviousScore:    f.PreviousScore,
		NewScore:         newScore,
		FollowUpDay:      f.FollowUpDay,
	}
	if f.OutcomeDetailInDays != nil {
		in.OutcomeDetail = now.AddDate(0, 0, *f.OutcomeDetailInDays).Format(time.RFC3339)
	}

	if typ == domain.InteractionEngagement {
		if in.Interest, err = domain.ParseInterest(f.Interest); err != nil {
			return domain.Interaction{}, err
		}
		if in.Intent, err = domain.ParseIntent(f.Intent); err != nil {
			return domain.Interaction{}, err
		}
		if in.Engagement, err = domain.ParseEngagement(f.Engagement); err != nil {
			return domain.Interaction{}, err
		}
	}
	return in, nil
}

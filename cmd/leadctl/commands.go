package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"lead_pipeline_backend/internal/leads/agenda"
	"lead_pipeline_backend/internal/leads/domain"
	"lead_pipeline_backend/internal/leads/management"
	"lead_pipeline_backend/internal/leads/workspace"
	"lead_pipeline_backend/internal/seed"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// --- seed ---

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample pipeline into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := seed.Run(cmd.Context(), c.app.store, c.app.clock.Now(), c.app.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d leads (%d already present)\n", res.Created, res.Skipped)
			return nil
		},
	}
}

// --- add ---

func (c *cli) addCmd() *cobra.Command {
	var in management.AddLeadInput
	var traits string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a lead and schedule its Day 1 follow-up",
		Long: `Add a lead and schedule its Day 1 follow-up.

Examples:
  leadctl add --name "Alex Johnson" --phone "+1 415 555 0132" --course "UX Design"
  leadctl add --name "Brenda Smith" --phone 2223334444 --course "Data Science" --traits "Self-starter"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if traits != "" {
				in.Traits = strings.Split(traits, ",")
			}
			lead, err := c.app.leads.ManagementService().AddLead(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", lead.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "lead name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.Course, "course", "", "course of interest")
	cmd.Flags().StringVar(&traits, "traits", "", "comma-separated traits")
	cmd.Flags().StringVar(&in.Note, "note", "", "free-form note")
	return cmd
}

// --- list ---

func (c *cli) listCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads, most recently contacted first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := management.ListLeadsParams{Limit: limit}
			if status != "" {
				s, err := domain.ParseLeadStatus(status)
				if err != nil {
					return err
				}
				params.Status = &s
			}

			leads, err := c.app.leads.ManagementService().ListLeads(cmd.Context(), params)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOURSE\tSCORE\tSEGMENT\tSTATUS\tLAST CONTACT")
			for _, l := range leads {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d (%s)\t%s\t%s\t%s\n",
					l.Lead.ID, l.Lead.Name, l.Lead.Course, l.Lead.Score, l.Responsiveness,
					l.Lead.Segment, l.Lead.Status, formatDue(l.Lead.LastInteractionAt))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (Active or Archived)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of leads")
	return cmd
}

// --- show ---

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <lead-id>",
		Short: "Show a lead with its open task and interaction log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, err := parseID("lead", args[0])
			if err != nil {
				return err
			}
			detail, err := c.app.leads.ManagementService().GetLeadDetail(cmd.Context(), leadID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printLead(out, detail.Lead, detail.Responsiveness)
			printTask(out, detail.OpenTask)
			fmt.Fprintln(out, "  interactions:")
			for _, in := range detail.Interactions {
				printInteraction(out, in)
			}
			return nil
		},
	}
}

// --- log ---

func (c *cli) logCmd() *cobra.Command {
	var typ, interest, intent, engagement, outcome, detail, notes string

	cmd := &cobra.Command{
		Use:   "log <lead-id>",
		Short: "Log an engagement or touchpoint and regenerate the next task",
		Long: `Log an engagement or touchpoint and regenerate the next task.

Examples:
  leadctl log 3f0c... --interest Love --intent High --engagement Positive --outcome Demo --detail 2024-05-14T16:00:00Z
  leadctl log 3f0c... --type Touchpoint --notes "Sent brochure"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, err := parseID("lead", args[0])
			if err != nil {
				return err
			}
			interactionType, err := domain.ParseInteractionType(typ)
			if err != nil {
				return err
			}
			input, err := interactionInput(interest, intent, engagement, outcome, detail, notes)
			if err != nil {
				return err
			}

			ws, err := workspace.Open(cmd.Context(), c.app.leads.ManagementService(), c.app.clock, c.app.log, leadID)
			if err != nil {
				return err
			}
			if err := ws.Execute(cmd.Context(), workspace.LogInteraction{Type: interactionType, Input: input}); err != nil {
				return err
			}

			snap := ws.Snapshot()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "score %d, segment %s\n", snap.Lead.Score, snap.Lead.Segment)
			printTask(out, snap.OpenTask)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", string(domain.InteractionEngagement), "Engagement or Touchpoint")
	cmd.Flags().StringVar(&interest, "interest", "", "Love, High, Unsure, Low or Hate")
	cmd.Flags().StringVar(&intent, "intent", "", "High, Neutral or Low")
	cmd.Flags().StringVar(&engagement, "engagement", "", "Positive, Neutral or Negative")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Demo, Visit, PayLink, FollowLater or NeedsInfo")
	cmd.Flags().StringVar(&detail, "detail", "", "outcome date or action")
	cmd.Flags().StringVar(&notes, "notes", "", "interaction notes")
	return cmd
}

// --- complete / ack ---

func (c *cli) completeCmd() *cobra.Command {
	var terminal bool

	cmd := &cobra.Command{
		Use:   "complete <lead-id> <task-id>",
		Short: "Mark a task done; the Day 7 follow-up archives the lead",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, taskID, err := parseLeadAndTask(args)
			if err != nil {
				return err
			}
			ws, err := workspace.Open(cmd.Context(), c.app.leads.ManagementService(), c.app.clock, c.app.log, leadID)
			if err != nil {
				return err
			}
			if err := ws.Execute(cmd.Context(), workspace.CompleteTask{TaskID: taskID, Terminal: terminal}); err != nil {
				return err
			}

			snap := ws.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "task completed, lead %s\n", snap.Lead.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&terminal, "terminal", false, "treat the task as the final follow-up and archive the lead")
	return cmd
}

func (c *cli) ackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ack <lead-id> <task-id>",
		Short: "Record a follow-up as sent and schedule the next one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, taskID, err := parseLeadAndTask(args)
			if err != nil {
				return err
			}
			ws, err := workspace.Open(cmd.Context(), c.app.leads.ManagementService(), c.app.clock, c.app.log, leadID)
			if err != nil {
				return err
			}
			if err := ws.Execute(cmd.Context(), workspace.AcknowledgeTask{TaskID: taskID}); err != nil {
				return err
			}

			snap := ws.Snapshot()
			out := cmd.OutOrStdout()
			if snap.Lead.IsArchived() {
				fmt.Fprintln(out, "final follow-up sent, lead archived")
				return nil
			}
			printTask(out, snap.OpenTask)
			return nil
		},
	}
}

// --- next ---

func (c *cli) nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <lead-id>",
		Short: "Show the next standard follow-up day for a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			leadID, err := parseID("lead", args[0])
			if err != nil {
				return err
			}
			step, err := c.app.leads.ManagementService().NextFollowUp(cmd.Context(), leadID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Day %d, due %s\n", step.Day, formatDue(step.Due))
			return nil
		},
	}
}

// --- agenda ---

func (c *cli) agendaCmd() *cobra.Command {
	var eventsOnly bool

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show open tasks and upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := c.app.leads.AgendaService()
			out := cmd.OutOrStdout()

			if !eventsOnly {
				tasks, err := svc.OpenTasks(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "DUE\tLEAD\tTASK\tSEGMENT")
				for _, t := range tasks {
					fmt.Fprintf(tw, "%s\t%s (%s)\t%s\t%s\n",
						formatDue(t.Task.DueDate), t.LeadName, t.Responsiveness, t.Task.Description, t.Task.Segment)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			groups, err := svc.Events(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range []struct {
				title string
				items []agenda.EventItem
			}{
				{"Today", groups.Today},
				{"Tomorrow", groups.Tomorrow},
				{"Later", groups.Later},
			} {
				fmt.Fprintf(out, "%s:\n", g.title)
				if len(g.items) == 0 {
					fmt.Fprintln(out, "  nothing scheduled")
				}
				for _, e := range g.items {
					fmt.Fprintf(out, "  %s  %s with %s\n", formatDue(e.Task.DueDate), e.EventType, e.LeadName)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&eventsOnly, "events", false, "show only demos and visits")
	return cmd
}

// --- helpers ---

func parseID(what, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func parseLeadAndTask(args []string) (uuid.UUID, uuid.UUID, error) {
	leadID, err := parseID("lead", args[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	taskID, err := parseID("task", args[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return leadID, taskID, nil
}

func interactionInput(interest, intent, engagement, outcome, detail, notes string) (management.InteractionInput, error) {
	in := management.InteractionInput{OutcomeDetail: detail, Notes: notes}

	var err error
	if interest != "" {
		if in.Signals.Interest, err = domain.ParseInterest(interest); err != nil {
			return in, err
		}
	}
	if intent != "" {
		if in.Signals.Intent, err = domain.ParseIntent(intent); err != nil {
			return in, err
		}
	}
	if engagement != "" {
		if in.Signals.Engagement, err = domain.ParseEngagement(engagement); err != nil {
			return in, err
		}
	}
	if in.Outcome, err = domain.ParseOutcome(outcome); err != nil {
		return in, err
	}
	return in, nil
}

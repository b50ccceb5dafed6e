package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"wayfarer/internal/display"
	"wayfarer/internal/format"
	"wayfarer/internal/store"
)

var reportFlags struct {
	db      string
	session string
	limit   int
	pretty  bool
}

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Report on stored runs and sessions",
	Long: `Report reads the wayfarer database and renders Markdown summaries:
recent runs and sessions with no arguments, one cohort run when given a
run id, or a single session trace with --session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.db, "db", store.DefaultDBPath, "SQLite database path")
	f.StringVar(&reportFlags.session, "session", "", "Report a single stored session by id")
	f.IntVar(&reportFlags.limit, "limit", 20, "Max rows per listing")
	f.BoolVar(&reportFlags.pretty, "pretty", false, "Render the Markdown for the terminal")
}

func runReport(cmd *cobra.Command, args []string) error {
	st, err := store.Open(reportFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var md string
	switch {
	case reportFlags.session != "":
		md, err = buildSessionReport(st, reportFlags.session)
	case len(args) == 1:
		md, err = buildRunReport(st, args[0])
	default:
		md, err = buildOverviewReport(st, reportFlags.limit)
	}
	if err != nil {
		return err
	}
	return renderReport(cmd, md)
}

func buildOverviewReport(st store.Store, limit int) (string, error) {
	var b strings.Builder
	b.WriteString("# Wayfarer report\n\n")

	runs, err := st.ListRuns(limit)
	if err != nil {
		return "", err
	}
	b.WriteString("## Runs\n\n")
	if len(runs) == 0 {
		b.WriteString("No cohort runs stored.\n")
	} else {
		tb := format.NewTable(format.Markdown)
		tb.Header("Run", "Goal", "Sessions", "Completion", "Mean Steps", "Mean Time", "Created")
		for _, r := range runs {
			tb.Row(r.ID, format.Truncate(r.Goal, 32), r.Sessions,
				format.FmtPercent(r.CompletionRate), fmt.Sprintf("%.1f", r.MeanSteps),
				format.FmtSimSeconds(r.MeanElapsed), r.CreatedAt)
		}
		b.WriteString(tb.String())
		b.WriteString("\n")
	}

	rows, err := st.ListSessions(limit)
	if err != nil {
		return "", err
	}
	b.WriteString("\n## Sessions\n\n")
	if len(rows) == 0 {
		b.WriteString("No sessions stored.\n")
	} else {
		b.WriteString(sessionTable(rows))
		b.WriteString("\n")
	}

	top, err := st.TopFriction(10)
	if err != nil {
		return "", err
	}
	if len(top) > 0 {
		b.WriteString("\n## Friction hotspots\n\n")
		tb := format.NewTable(format.Markdown)
		tb.Header("Screen", "Friction", "Count")
		for _, fc := range top {
			tb.Row(fc.ScreenID, display.Friction(fc.Kind), fc.Count)
		}
		b.WriteString(tb.String())
		b.WriteString("\n")
	}
	return b.String(), nil
}

func buildRunReport(st store.Store, id string) (string, error) {
	run, err := st.GetRun(id)
	if err != nil {
		return "", err
	}
	rows, err := st.ListSessionsByRun(id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", run.ID)
	fmt.Fprintf(&b, "- Goal: %s\n", run.Goal)
	fmt.Fprintf(&b, "- Route: screen %d to screen %d\n", run.SourceID, run.TargetID)
	fmt.Fprintf(&b, "- Sessions: %d (%d errors) over %d workers\n", run.Sessions, run.Errors, run.Workers)
	fmt.Fprintf(&b, "- Base seed: %d\n", run.BaseSeed)
	fmt.Fprintf(&b, "- Completion: %s\n", format.FmtPercent(run.CompletionRate))
	fmt.Fprintf(&b, "- Mean steps: %.1f\n", run.MeanSteps)
	fmt.Fprintf(&b, "- Mean time: %s simulated\n", format.FmtSimSeconds(run.MeanElapsed))
	fmt.Fprintf(&b, "- Created: %s\n", run.CreatedAt)

	if len(rows) > 0 {
		b.WriteString("\n## Sessions\n\n")
		b.WriteString(sessionTable(rows))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func buildSessionReport(st store.Store, id string) (string, error) {
	tr, err := st.GetSession(id)
	if err != nil {
		return "", err
	}
	sum := tr.Summarize()

	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", tr.SessionID)
	fmt.Fprintf(&b, "- Persona: %s\n", tr.Persona)
	fmt.Fprintf(&b, "- Goal: %s\n", tr.Goal)
	fmt.Fprintf(&b, "- Outcome: %s\n", display.OutcomeWithCode(string(tr.Outcome)))
	fmt.Fprintf(&b, "- Steps: %d in %s simulated\n", sum.Steps, format.FmtSimSeconds(sum.ElapsedSeconds))
	fmt.Fprintf(&b, "- Final screen: %d\n", sum.FinalScreenID)
	fmt.Fprintf(&b, "- Mood: %s\n", sum.FinalMood)
	fmt.Fprintf(&b, "- Seed: %d\n", tr.Seed)

	if len(tr.Steps) > 0 {
		b.WriteString("\n## Steps\n\n")
		tb := format.NewTable(format.Markdown)
		tb.Header("#", "From", "To", "Click", "Wait", "Mood", "Friction")
		for _, s := range tr.Steps {
			click := format.Truncate(s.ClickTarget, 28)
			if s.Auto {
				click = "(auto)"
			}
			kinds := make([]string, len(s.Friction))
			for i, k := range s.Friction {
				kinds[i] = display.Friction(string(k))
			}
			tb.Row(s.Step, s.FromID, s.ToID, click,
				format.FmtSimSeconds(s.WaitSeconds), s.Mood, strings.Join(kinds, ", "))
		}
		b.WriteString(tb.String())
		b.WriteString("\n")
	}

	if len(sum.DropOffs) > 0 {
		b.WriteString("\n## Drop-offs\n\n")
		for _, d := range sum.DropOffs {
			fmt.Fprintf(&b, "- Screen %d: %s\n", d.ScreenID, d.Reason)
		}
	}
	return b.String(), nil
}

func sessionTable(rows []*store.SessionRow) string {
	tb := format.NewTable(format.Markdown)
	tb.Header("Session", "Persona", "Outcome", "Steps", "Time", "Mood", "Created")
	for _, r := range rows {
		tb.Row(r.ID, r.Persona, display.Outcome(r.Outcome), r.Steps,
			format.FmtSimSeconds(r.ElapsedSeconds), r.FinalMood, r.CreatedAt)
	}
	return tb.String()
}

// renderReport prints the Markdown as-is, or through glamour when
// --pretty is set.
func renderReport(cmd *cobra.Command, md string) error {
	out := cmd.OutOrStdout()
	if !reportFlags.pretty {
		fmt.Fprint(out, md)
		return nil
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	fmt.Fprint(out, rendered)
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wayfarer/adapters/narrator"
	"wayfarer/internal/display"
	"wayfarer/internal/flow"
	"wayfarer/internal/format"
	"wayfarer/internal/persona"
	"wayfarer/internal/sim"
	"wayfarer/internal/store"
	"wayfarer/pkg/journey"
)

var runFlags struct {
	graph       string
	personaName string
	personaFile string
	goal        string
	source      int
	target      int
	seed        uint64
	maxSteps    int
	maxSim      float64
	events      string
	narrate     bool
	remote      bool
	model       string
	db          string
	noSave      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one persona session over a screen graph",
	Long: `Run walks a single persona from a source screen toward a target,
printing the step-by-step trace and saving it for later reporting.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.graph, "graph", "", "Path to the screen graph JSON export")
	f.StringVar(&runFlags.personaName, "persona", "", "Embedded persona preset (see 'wayfarer personas')")
	f.StringVar(&runFlags.personaFile, "persona-file", "", "Path to a persona YAML record (overrides --persona)")
	f.StringVar(&runFlags.goal, "goal", "", "What the persona is trying to accomplish")
	f.IntVar(&runFlags.source, "source", 0, "Screen id the session starts on")
	f.IntVar(&runFlags.target, "target", 0, "Screen id that counts as success")
	f.Uint64Var(&runFlags.seed, "seed", 1, "Deterministic RNG seed")
	f.IntVar(&runFlags.maxSteps, "max-steps", 0, "Step cap (0 = default)")
	f.Float64Var(&runFlags.maxSim, "max-sim-seconds", 0, "Simulated-time cap in seconds (0 = default)")
	f.StringVar(&runFlags.events, "events", "", "Write the session event stream as JSONL to this path")
	f.BoolVar(&runFlags.narrate, "narrate", false, "Print live first-person narration while the session runs")
	f.BoolVar(&runFlags.remote, "remote-narrator", false, "Narrate the finished trace via the OpenAI API (needs OPENAI_API_KEY)")
	f.StringVar(&runFlags.model, "narrator-model", "", "Override the remote narrator model")
	f.StringVar(&runFlags.db, "db", store.DefaultDBPath, "SQLite database path")
	f.BoolVar(&runFlags.noSave, "no-save", false, "Skip persisting the trace")
	_ = runCmd.MarkFlagRequired("graph")
	_ = runCmd.MarkFlagRequired("goal")
	_ = runCmd.MarkFlagRequired("source")
	_ = runCmd.MarkFlagRequired("target")
}

func runRun(cmd *cobra.Command, _ []string) error {
	g, err := flow.LoadGraph(runFlags.graph)
	if err != nil {
		return err
	}
	prof, err := resolveProfile(runFlags.personaName, runFlags.personaFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var observers []journey.Observer
	var jsonl *journey.JSONLWriter
	if runFlags.events != "" {
		f, err := os.Create(runFlags.events)
		if err != nil {
			return fmt.Errorf("create events file: %w", err)
		}
		defer f.Close()
		jsonl = journey.NewJSONLWriter(f)
		observers = append(observers, jsonl)
	}
	if runFlags.narrate {
		observers = append(observers, journey.NewNarrationObserver(
			journey.WithSink(func(line string) { fmt.Fprintln(out, line) }),
		))
	}

	runner := sim.NewRunner(g, sim.WithObserver(journey.Compose(observers...)))
	tr, err := runner.Run(cmd.Context(), sim.Params{
		Goal:          runFlags.goal,
		SourceID:      runFlags.source,
		TargetID:      runFlags.target,
		MaxSteps:      runFlags.maxSteps,
		MaxSimSeconds: runFlags.maxSim,
		Seed:          runFlags.seed,
		Persona:       prof,
	})
	if err != nil {
		return err
	}
	if jsonl != nil && jsonl.Err() != nil {
		fmt.Fprintf(os.Stderr, "events file: %v\n", jsonl.Err())
	}
	if runFlags.narrate {
		fmt.Fprintln(out)
	}

	printSession(out, g, tr)

	if err := narrateTrace(cmd, prof, tr); err != nil {
		return err
	}

	if !runFlags.noSave {
		st, err := store.Open(runFlags.db)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if err := st.SaveSession("", tr); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		fmt.Fprintf(out, "\nSaved session %s (db: %s)\n", tr.SessionID, runFlags.db)
	}
	return nil
}

func printSession(out io.Writer, g *flow.ScreenGraph, tr *sim.Trace) {
	fmt.Fprintf(out, "Session:  %s\n", tr.SessionID)
	fmt.Fprintf(out, "Persona:  %s\n", tr.Persona)
	fmt.Fprintf(out, "Goal:     %s\n", tr.Goal)
	fmt.Fprintf(out, "Outcome:  %s\n", display.OutcomeWithCode(string(tr.Outcome)))
	fmt.Fprintf(out, "Steps:    %d in %s simulated\n", len(tr.Steps), format.FmtSimSeconds(tr.ElapsedSeconds))
	fmt.Fprintf(out, "Ended on: %s\n", g.NodeName(tr.FinalScreenID))
	fmt.Fprintf(out, "Mood:     %s\n", tr.FinalEmotion.Label())

	if len(tr.Steps) > 0 {
		tb := format.NewTable(format.ASCII)
		tb.Header("#", "From", "To", "Click", "Wait", "Mood")
		tb.Columns(format.ColumnConfig{Number: 5, Align: format.AlignRight})
		for _, s := range tr.Steps {
			click := format.Truncate(s.ClickTarget, 28)
			if s.Auto {
				click = "(auto)"
			}
			tb.Row(s.Step, g.NodeName(s.FromID), g.NodeName(s.ToID), click,
				format.FmtSimSeconds(s.WaitSeconds), s.Mood)
		}
		fmt.Fprintf(out, "\n%s\n", tb.String())
	}

	if len(tr.Friction) > 0 {
		fmt.Fprintf(out, "\nFriction (%d):\n", len(tr.Friction))
		for _, pt := range tr.Friction {
			fmt.Fprintf(out, "  - %s at %s: %s\n",
				display.Friction(string(pt.Kind)), g.NodeName(pt.ScreenID), pt.Description)
		}
	}
}

// narrateTrace writes the post-session recap. The template narrator is
// the default; --remote-narrator swaps in the OpenAI-backed one.
func narrateTrace(cmd *cobra.Command, prof persona.Profile, tr *sim.Trace) error {
	var n narrator.Narrator = narrator.TemplateNarrator{}
	if runFlags.remote {
		opts := []narrator.RemoteOption{}
		if runFlags.model != "" {
			opts = append(opts, narrator.WithModel(runFlags.model))
		}
		rn, err := narrator.NewRemoteNarrator(os.Getenv("OPENAI_API_KEY"), opts...)
		if err != nil {
			return err
		}
		n = rn
	}

	text, err := n.Narrate(cmd.Context(), prof, tr)
	if err != nil {
		return fmt.Errorf("narrate: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", text)
	return nil
}

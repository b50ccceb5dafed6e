package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"wayfarer/internal/batch"
	"wayfarer/internal/display"
	"wayfarer/internal/flow"
	"wayfarer/internal/format"
	"wayfarer/internal/friction"
	"wayfarer/internal/sim"
	"wayfarer/internal/store"
)

var batchFlags struct {
	graph      string
	personas   string
	cohortFile string
	goal       string
	source     int
	target     int
	baseSeed   uint64
	workers    int
	maxSteps   int
	maxSim     float64
	db         string
	noSave     bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a cohort of persona sessions and aggregate the outcomes",
	Long: `Batch runs one session per persona over a bounded worker pool, all
sharing the same goal and route, then prints completion and friction
aggregates. Session i runs with seed base-seed+i, so a whole cohort
replays exactly from one number.`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchFlags.graph, "graph", "", "Path to the screen graph JSON export")
	f.StringVar(&batchFlags.personas, "personas", "", "Comma-separated preset names (default: all embedded presets)")
	f.StringVar(&batchFlags.cohortFile, "cohort-file", "", "Path to a YAML cohort file (overrides --personas)")
	f.StringVar(&batchFlags.goal, "goal", "", "What every persona is trying to accomplish")
	f.IntVar(&batchFlags.source, "source", 0, "Screen id the sessions start on")
	f.IntVar(&batchFlags.target, "target", 0, "Screen id that counts as success")
	f.Uint64Var(&batchFlags.baseSeed, "base-seed", 1, "Seed for session 0; session i uses base-seed+i")
	f.IntVar(&batchFlags.workers, "workers", 0, "Concurrent sessions (0 = default)")
	f.IntVar(&batchFlags.maxSteps, "max-steps", 0, "Per-session step cap (0 = default)")
	f.Float64Var(&batchFlags.maxSim, "max-sim-seconds", 0, "Per-session simulated-time cap (0 = default)")
	f.StringVar(&batchFlags.db, "db", store.DefaultDBPath, "SQLite database path")
	f.BoolVar(&batchFlags.noSave, "no-save", false, "Skip persisting the run and its traces")
	_ = batchCmd.MarkFlagRequired("graph")
	_ = batchCmd.MarkFlagRequired("goal")
	_ = batchCmd.MarkFlagRequired("source")
	_ = batchCmd.MarkFlagRequired("target")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	g, err := flow.LoadGraph(batchFlags.graph)
	if err != nil {
		return err
	}
	cohort, err := resolveCohort(splitList(batchFlags.personas), batchFlags.cohortFile)
	if err != nil {
		return err
	}

	cfg := batch.Config{
		Goal:          batchFlags.goal,
		SourceID:      batchFlags.source,
		TargetID:      batchFlags.target,
		MaxSteps:      batchFlags.maxSteps,
		MaxSimSeconds: batchFlags.maxSim,
		Workers:       batchFlags.workers,
		BaseSeed:      batchFlags.baseSeed,
	}
	if cfg.Workers <= 0 {
		cfg.Workers = batch.DefaultWorkers
	}

	runner := sim.NewRunner(g)
	rep, err := batch.RunCohort(cmd.Context(), runner, cfg, cohort)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printCohort(out, rep, cfg.Workers)

	if !batchFlags.noSave {
		st, err := store.Open(batchFlags.db)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if err := saveCohort(st, cfg, rep); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSaved run %s with %d sessions (db: %s)\n",
			rep.RunID, rep.Total-rep.Errors, batchFlags.db)
	}
	return nil
}

func printCohort(out io.Writer, rep *batch.Report, workers int) {
	fmt.Fprintf(out, "Run:        %s\n", rep.RunID)
	fmt.Fprintf(out, "Sessions:   %d over %d workers\n", rep.Total, workers)
	if rep.Errors > 0 {
		fmt.Fprintf(out, "Errors:     %d\n", rep.Errors)
	}
	fmt.Fprintf(out, "Completion: %s\n", format.FmtPercent(rep.CompletionRate))
	fmt.Fprintf(out, "Mean steps: %.1f\n", rep.MeanSteps)
	fmt.Fprintf(out, "Mean time:  %s simulated\n", format.FmtSimSeconds(rep.MeanElapsed))

	if len(rep.Outcomes) > 0 {
		codes := make([]string, 0, len(rep.Outcomes))
		for code := range rep.Outcomes {
			codes = append(codes, string(code))
		}
		sort.Strings(codes)
		tb := format.NewTable(format.ASCII)
		tb.Header("Outcome", "Sessions")
		for _, code := range codes {
			tb.Row(display.Outcome(code), rep.Outcomes[sim.Outcome(code)])
		}
		fmt.Fprintf(out, "\n%s\n", tb.String())
	}

	if len(rep.FrictionByKind) > 0 {
		kinds := make([]string, 0, len(rep.FrictionByKind))
		for k := range rep.FrictionByKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		tb := format.NewTable(format.ASCII)
		tb.Header("Friction", "Count")
		for _, k := range kinds {
			tb.Row(display.Friction(k), rep.FrictionByKind[friction.Kind(k)])
		}
		fmt.Fprintf(out, "\n%s\n", tb.String())
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("#", "Persona", "Outcome", "Steps", "Time", "Mood")
	tb.Columns(
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
		format.ColumnConfig{Number: 5, Align: format.AlignRight},
	)
	for _, res := range rep.Results {
		if res.Err != nil {
			tb.Row(res.Index, res.Persona, "error: "+format.Truncate(res.Err.Error(), 36), "-", "-", "-")
			continue
		}
		tr := res.Trace
		tb.Row(res.Index, res.Persona, display.Outcome(string(tr.Outcome)),
			len(tr.Steps), format.FmtSimSeconds(tr.ElapsedSeconds), tr.FinalEmotion.Label())
	}
	fmt.Fprintf(out, "\n%s\n", tb.String())
}

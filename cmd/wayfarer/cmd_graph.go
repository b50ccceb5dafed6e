package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wayfarer/internal/flow"
	"wayfarer/internal/format"
)

var graphFlags struct {
	target int
}

var graphCmd = &cobra.Command{
	Use:   "graph <path>",
	Short: "Inspect a screen graph export",
	Long: `Graph loads a screen graph JSON export and summarizes what the
simulator will see: screens, resolvable edges, auto-advance links, and
(with --target) how many hops each screen sits from the target.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraphCmd,
}

func init() {
	graphCmd.Flags().IntVar(&graphFlags.target, "target", -1, "Also report hop distances to this screen id")
}

func runGraphCmd(cmd *cobra.Command, args []string) error {
	g, err := flow.LoadGraph(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Graph:   %s\n", args[0])
	fmt.Fprintf(out, "Screens: %d\n", len(g.Nodes()))
	fmt.Fprintf(out, "Edges:   %d (%d dropped for unresolved endpoints)\n", len(g.Edges()), g.DroppedEdges())

	var distances map[int]int
	if graphFlags.target >= 0 {
		if _, ok := g.Node(graphFlags.target); !ok {
			return fmt.Errorf("target screen %d not in graph", graphFlags.target)
		}
		distances = flow.Distances(g, graphFlags.target)
		fmt.Fprintf(out, "Target:  %s reachable from %d/%d screens\n",
			g.NodeName(graphFlags.target), len(distances), len(g.Nodes()))
	}

	tb := format.NewTable(format.ASCII)
	if distances == nil {
		tb.Header("ID", "Screen", "Out", "Auto")
	} else {
		tb.Header("ID", "Screen", "Out", "Auto", "Hops")
	}
	for _, id := range g.SortedNodeIDs() {
		edges := g.EdgesFrom(id)
		auto := 0
		for _, e := range edges {
			if e.AutoAdvance {
				auto++
			}
		}
		if distances == nil {
			tb.Row(id, g.NodeName(id), len(edges), auto)
			continue
		}
		hops := "-"
		if d, ok := distances[id]; ok {
			hops = strconv.Itoa(d)
		}
		tb.Row(id, g.NodeName(id), len(edges), auto, hops)
	}
	fmt.Fprintf(out, "\n%s\n", tb.String())
	return nil
}

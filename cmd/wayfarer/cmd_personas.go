package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wayfarer/adapters/personas"
	"wayfarer/internal/format"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the embedded persona presets",
	RunE:  runPersonas,
}

func runPersonas(cmd *cobra.Command, _ []string) error {
	profiles, err := personas.LoadAll()
	if err != nil {
		return err
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("Name", "O", "C", "E", "A", "N", "Risk", "Style", "Experience")
	for _, p := range profiles {
		tb.Row(p.Name,
			trait(p.Openness), trait(p.Conscientiousness), trait(p.Extraversion),
			trait(p.Agreeableness), trait(p.Neuroticism),
			string(p.RiskAppetite), string(p.Communication), string(p.Experience))
	}
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}

func trait(v float64) string { return fmt.Sprintf("%.2f", v) }

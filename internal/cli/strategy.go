package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/citelens/citelens/internal/verify"
)

// strategyCmd represents the strategy command
var strategyCmd = &cobra.Command{
	Use:   "strategy <topic>",
	Short: "Generate a citation strategy for a topic",
	Long: `Strategy recommends how to source citations for a topic and
audience segment: recommended source types, citation formats, a four-tier
authority hierarchy, and density and presentation guidance.

This is a pure lookup: no network calls, deterministic output.

Example:
  citelens strategy "cloud security" --segment b2b
  citelens strategy "home insulation" --segment b2c --json strategy.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStrategy,
}

func init() {
	rootCmd.AddCommand(strategyCmd)

	strategyCmd.Flags().StringVar(&segment, "segment", "b2b", "audience segment (b2b, b2c)")
	strategyCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
}

func runStrategy(cmd *cobra.Command, args []string) error {
	seg, err := parseSegment(segment)
	if err != nil {
		return err
	}

	topic := strings.Join(args, " ")
	return writeJSON(outJSON, verify.Strategy(topic, seg))
}

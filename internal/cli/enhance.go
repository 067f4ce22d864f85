package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var enhanceOutContent string

// enhanceCmd represents the enhance command
var enhanceCmd = &cobra.Command{
	Use:   "enhance <file>",
	Short: "Upgrade low-authority citations in a content file",
	Long: `Enhance verifies a content file, then swaps every citation below
the high-authority tier for a curated authoritative source with a recent
publication year, appends the upgraded references to their originating
sections, and reports the before/after credibility delta.

Example:
  citelens enhance article.txt --segment b2b
  citelens enhance article.json --json delta.json --content enhanced.json`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhance,
}

func init() {
	rootCmd.AddCommand(enhanceCmd)

	enhanceCmd.Flags().StringVar(&segment, "segment", "b2b", "audience segment (b2b, b2c)")
	enhanceCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
	enhanceCmd.Flags().StringVar(&enhanceOutContent, "content", "", "path for the updated content JSON (optional)")
	enhanceCmd.Flags().DurationVar(&timeout, "timeout", 4*time.Minute, "overall enhancement timeout")
	enhanceCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	enhanceCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable AI-assisted extraction and relevance scoring")
	enhanceCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	enhanceCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runEnhance(cmd *cobra.Command, args []string) error {
	seg, err := parseSegment(segment)
	if err != nil {
		return err
	}

	content, err := loadContent(args[0])
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report := p.verifier.EnhanceAuthority(ctx, content, seg)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Enhanced %d of %d citations\n", len(report.Enhanced), report.OriginalCitations)
		fmt.Fprintf(os.Stderr, "✓ Credibility: %.2f → %.2f\n", report.OriginalScore, report.EnhancedScore)
		fmt.Fprintln(os.Stderr)
	}

	if enhanceOutContent != "" {
		sections := make(map[string]string)
		for _, s := range report.UpdatedContent.Normalize() {
			sections[s.Name] = s.Text
		}
		if err := writeJSON(enhanceOutContent, map[string]any{"sections": sections}); err != nil {
			return err
		}
	}

	return writeJSON(outJSON, report)
}

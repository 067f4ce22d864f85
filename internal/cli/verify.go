package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/citelens/citelens/internal/model"
	"github.com/spf13/cobra"
)

var (
	segment     string
	outJSON     string
	timeout     time.Duration
	noCache     bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify the citations in a content file",
	Long: `Verify extracts every citation from a content file and scores it:
- URL, DOI, and academic-style citations via layered pattern matching
- Optional AI-assisted extraction for unstructured references
- Reachability probes and domain authority (Moz, Ahrefs, or heuristic)
- Multi-criterion scoring tuned per audience segment

The file may be plain text, or JSON with a "content" field or a
"sections" map.

Example:
  citelens verify article.txt
  citelens verify article.json --segment b2c --json report.json
  citelens verify article.txt --llm openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&segment, "segment", "b2b", "audience segment (b2b, b2c)")
	verifyCmd.Flags().StringVar(&outJSON, "json", "-", "output JSON path (- for stdout)")
	verifyCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall verification timeout")
	verifyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	// LLM flags
	verifyCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable AI-assisted extraction and relevance scoring")
	verifyCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	if verbose {
		fmt.Fprintf(os.Stderr, "Verifying: %s (segment: %s)\n", args[0], seg)
	}

	hitsBefore := p.store.Stats().TotalHits
	report := p.verifier.VerifyCitations(ctx, content, seg)
	p.record(fmt.Sprintf("verify-%d", time.Now().UnixNano()), report, p.store.Stats().TotalHits-hitsBefore)

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Found %d citations\n", report.CitationCount)
		fmt.Fprintf(os.Stderr, "✓ Overall credibility: %.2f/10\n", report.OverallCredibilityScore)
		for _, r := range report.Citations {
			fmt.Fprintf(os.Stderr, "  %-20s %.2f  %s\n", r.Status, r.OverallScore, r.Citation.DedupKey())
		}
		fmt.Fprintln(os.Stderr)
	}

	return writeJSON(outJSON, report)
}

// buildConfig merges defaults with the global flags shared by the
// verification commands
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose

	// Provider credentials come from the environment only
	cfg.Providers.Moz.AccessID = os.Getenv("MOZ_ACCESS_ID")
	cfg.Providers.Moz.SecretKey = os.Getenv("MOZ_SECRET_KEY")
	cfg.Providers.Ahrefs.APIKey = os.Getenv("AHREFS_API_KEY")

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

func parseSegment(s string) (model.Segment, error) {
	switch model.Segment(s) {
	case model.SegmentB2B:
		return model.SegmentB2B, nil
	case model.SegmentB2C:
		return model.SegmentB2C, nil
	default:
		return "", fmt.Errorf("unknown segment %q (supported: b2b, b2c)", s)
	}
}

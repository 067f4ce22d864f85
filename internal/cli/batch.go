package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/citelens/citelens/internal/model"
	"github.com/citelens/citelens/internal/monitor"
	"github.com/citelens/citelens/internal/verify"
	"github.com/citelens/citelens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple content files in parallel",
	Long: `Batch verifies many content files concurrently:
- Read content file paths from the input file (one per line)
- Verify files in parallel with a configurable worker count
- Write one JSON report per content file

Example:
  citelens batch files.txt
  citelens batch files.txt --concurrency 10 --output-dir ./reports
  citelens batch files.txt --segment b2c --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./citelens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	batchCmd.Flags().StringVar(&segment, "segment", "b2b", "audience segment (b2b, b2c)")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable AI-assisted extraction and relevance scoring")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// verifyJob verifies one content file inside the worker pool
type verifyJob struct {
	path     string
	segment  model.Segment
	verifier *verify.Verifier
}

// verifyJobResult carries the outcome of one batch entry
type verifyJobResult struct {
	path   string
	report model.VerificationReport
	err    error
}

func (r verifyJobResult) GetError() error { return r.err }

func (j verifyJob) Execute(ctx context.Context) worker.Result {
	content, err := loadContent(j.path)
	if err != nil {
		return verifyJobResult{path: j.path, err: err}
	}
	return verifyJobResult{
		path:   j.path,
		report: j.verifier.VerifyCitations(ctx, content, j.segment),
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	seg, err := parseSegment(segment)
	if err != nil {
		return err
	}

	paths, err := readPathList(args[0])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no content files listed in %s", args[0])
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

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "⚙️  Verifying %d files with %d workers...\n", len(paths), concurrency)

	pool := worker.NewPool(concurrency)
	pool.Start()
	for _, path := range paths {
		pool.Submit(verifyJob{path: path, segment: seg, verifier: p.verifier})
	}

	// Context expiry stops the pool mid-batch
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	results := pool.Wait()
	close(done)

	successCount, failureCount := 0, 0
	for _, result := range results {
		r, ok := result.(verifyJobResult)
		if !ok {
			continue
		}
		if r.err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.path, r.err)
			continue
		}

		successCount++
		p.record("batch-"+filepath.Base(r.path), r.report, 0)

		reportPath := filepath.Join(outputDir, reportFilename(r.path))
		if err := writeJSON(reportPath, r.report); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (credibility: %.2f/10, %d citations)\n",
			r.path, r.report.OverallCredibilityScore, r.report.CitationCount)
	}

	fmt.Fprintf(os.Stderr, "\nBatch complete: %d succeeded, %d failed, reports in %s\n",
		successCount, failureCount, outputDir)

	health := p.monitor.HealthStatus()
	if health.State != monitor.HealthHealthy {
		fmt.Fprintf(os.Stderr, "Pipeline health: %s (success rate %.2f)\n", health.State, health.SuccessRate)
	}

	return nil
}

// readPathList reads one file path per line, skipping blanks and # comments
func readPathList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, scanner.Err()
}

// reportFilename derives the report name from the content file name
func reportFilename(contentPath string) string {
	base := filepath.Base(contentPath)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".report.json"
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/cache"
	"github.com/citelens/citelens/internal/extract"
	"github.com/citelens/citelens/internal/gateway"
	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
	"github.com/citelens/citelens/internal/monitor"
	"github.com/citelens/citelens/internal/verify"
)

// pipeline bundles the wired verification components for one CLI invocation
type pipeline struct {
	verifier *verify.Verifier
	store    *cache.Store
	monitor  *monitor.Monitor
	logger   *zap.Logger
}

// newPipeline assembles the pipeline from configuration
func newPipeline(cfg *model.Config) (*pipeline, error) {
	logger, err := newLogger(cfg.Output.Verbose)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create llm provider: %w", err)
	}

	store := cache.New(cache.Options{
		Enabled:       cfg.Cache.Enabled,
		TTL:           cfg.Cache.TTL,
		MaxEntries:    cfg.Cache.MaxEntries,
		SweepInterval: cfg.Cache.SweepInterval,
	})

	gw := gateway.New(cfg, logger)
	extractor := extract.NewExtractor(provider, logger)
	verifier := verify.New(extractor, gw, store, provider, logger)

	return &pipeline{
		verifier: verifier,
		store:    store,
		monitor:  monitor.New(cfg.Alerts, logger),
		logger:   logger,
	}, nil
}

// Close releases background resources
func (p *pipeline) Close() {
	p.store.Close()
	_ = p.logger.Sync()
}

// record pushes one verification run into monitoring and reports any alerts
// on stderr. cacheHits is the number of citations served from cache during
// this run.
func (p *pipeline) record(sessionID string, report model.VerificationReport, cacheHits int64) {
	successes := 0
	for _, r := range report.Citations {
		if r.Status != model.StatusUnverified {
			successes++
		}
	}

	stats := p.store.Stats()
	hitRate := 0.0
	if report.CitationCount > 0 {
		hitRate = float64(cacheHits) / float64(report.CitationCount)
	}

	alerts := p.monitor.TrackVerificationSession(sessionID, monitor.SessionMetrics{
		Duration:       time.Duration(report.ProcessingTimeMS) * time.Millisecond,
		CitationsFound: report.CitationCount,
		Successes:      successes,
		Failures:       report.CitationCount - successes,
		CacheHitRate:   hitRate,
		OverallScore:   report.OverallCredibilityScore,
	})
	p.monitor.TrackCitationQuality(report.Citations, report.Segment)
	p.monitor.TrackCachePerformance(monitor.CacheMetrics{
		HitRate:   hitRate,
		Entries:   stats.Entries,
		TotalHits: stats.TotalHits,
	})

	for _, a := range alerts {
		fmt.Fprintf(os.Stderr, "⚠ alert: %s\n", a.Message)
	}
}

// newLogger builds the process logger: human-readable in verbose mode,
// errors-only JSON otherwise
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	return cfg.Build()
}

// jsonContent mirrors the accepted JSON content shapes
type jsonContent struct {
	Content  string                     `json:"content"`
	Sections map[string]json.RawMessage `json:"sections"`
}

// loadContent reads a content file ("-" for stdin): JSON with a sections
// map or a content field, or plain text.
func loadContent(path string) (model.Content, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.Content{}, fmt.Errorf("read content: %w", err)
	}
	return parseContent(data), nil
}

// parseContent accepts JSON content shapes and falls back to plain text
func parseContent(data []byte) model.Content {
	var jc jsonContent
	if err := json.Unmarshal(data, &jc); err == nil {
		if len(jc.Sections) > 0 {
			sections := make(map[string]model.SectionValue, len(jc.Sections))
			for name, raw := range jc.Sections {
				sections[name] = parseSection(raw)
			}
			return model.Content{Sections: sections}
		}
		if jc.Content != "" {
			return model.Content{Body: jc.Content}
		}
	}

	return model.NewTextContent(string(data))
}

// parseSection accepts a plain string or a {content} / {text} object
func parseSection(raw json.RawMessage) model.SectionValue {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return model.SectionValue{Text: text}
	}

	var obj struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return model.SectionValue{Text: obj.Text, Content: obj.Content}
	}

	return model.SectionValue{}
}

// writeJSON renders any report as indented JSON to a file, or stdout when
// path is "-"
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if path == "-" || path == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

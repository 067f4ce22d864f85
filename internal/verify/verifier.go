// Package verify implements the verification orchestrator: per-citation
// multi-criterion scoring backed by the cache store and the external
// authority gateway, plus content enhancement and citation strategy
// generation. No failure inside the pipeline reaches the caller as an
// error; every boundary degrades to a defined fallback value.
package verify

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/cache"
	"github.com/citelens/citelens/internal/extract"
	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
)

const (
	defaultMaxWorkers = 5
	summaryLength     = 150
)

// AuthorityGateway is the slice of the gateway the orchestrator consumes
type AuthorityGateway interface {
	ValidateURL(ctx context.Context, rawURL string) model.URLValidation
	MozAuthority(ctx context.Context, domain string) (*model.DomainAuthority, error)
	AhrefsAuthority(ctx context.Context, domain string) (*model.DomainAuthority, error)
	VerifyDOI(ctx context.Context, doi string) model.DOIVerification
}

// Verifier scores extracted citations against external authority signals
type Verifier struct {
	extractor  *extract.Extractor
	gateway    AuthorityGateway
	cache      *cache.Store
	provider   llm.Provider // nil disables relevance analysis
	logger     *zap.Logger
	maxWorkers int

	now  func() time.Time // injectable for tests
	pick func(n int) int  // source picker for enhancement
}

// New creates a Verifier. The cache may be nil when caching is disabled
// entirely; the provider may be nil when no text-generation collaborator is
// configured.
func New(extractor *extract.Extractor, gw AuthorityGateway, store *cache.Store, provider llm.Provider, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.New(cache.Options{Enabled: false})
	}
	return &Verifier{
		extractor:  extractor,
		gateway:    gw,
		cache:      store,
		provider:   provider,
		logger:     logger,
		maxWorkers: defaultMaxWorkers,
		now:        time.Now,
		pick:       rand.Intn,
	}
}

// VerifyCitations extracts every citation from content and verifies each
// concurrently. Zero extractable citations is a normal outcome, reported
// with a zero credibility score, not an error. A top-level unexpected
// failure yields an empty summary carrying the error text.
func (v *Verifier) VerifyCitations(ctx context.Context, content model.Content, segment model.Segment) (report model.VerificationReport) {
	start := v.now()

	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("citation verification failed", zap.Any("panic", r))
			report = model.VerificationReport{
				Citations:        []model.VerificationResult{},
				Segment:          segment,
				Timestamp:        v.now(),
				ProcessingTimeMS: time.Since(start).Milliseconds(),
				Error:            "citation verification failed unexpectedly",
			}
		}
	}()

	extraction := v.extractor.Extract(ctx, content)

	report = model.VerificationReport{
		ContentSummary: summarize(content),
		Citations:      []model.VerificationResult{},
		CitationCount:  extraction.TotalFound,
		Segment:        segment,
		Timestamp:      v.now(),
	}

	if extraction.TotalFound == 0 {
		report.ProcessingTimeMS = time.Since(start).Milliseconds()
		return report
	}

	results := make([]model.VerificationResult, len(extraction.Citations))
	sem := make(chan struct{}, v.maxWorkers)
	var wg sync.WaitGroup

	for i, citation := range extraction.Citations {
		wg.Add(1)
		go func(i int, c model.ExtractedCitation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = v.VerifySingleCitation(ctx, c, segment)
		}(i, citation)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].OverallScore > results[j].OverallScore
	})

	var sum float64
	for _, r := range results {
		sum += r.OverallScore
	}

	report.Citations = results
	report.OverallCredibilityScore = model.Round2(sum / float64(len(results)))
	report.ProcessingTimeMS = time.Since(start).Milliseconds()
	return report
}

// VerifySingleCitation scores one citation. A cache hit returns the stored
// result unchanged; otherwise the citation is scored and the result is
// written to cache regardless of outcome. Unexpected failures degrade to a
// fallback result with status unverified.
func (v *Verifier) VerifySingleCitation(ctx context.Context, c model.ExtractedCitation, segment model.Segment) model.VerificationResult {
	cacheKey := c.DedupKey() + "-" + string(segment)
	if c.Enhanced {
		// An enhanced citation shares its identity key with the original
		// but carries a different source; keep the entries apart.
		cacheKey += "-enhanced"
	}

	if cached, ok := v.cache.Get(cache.KindCitation, cacheKey); ok {
		if result, ok := cached.(model.VerificationResult); ok {
			return result
		}
	}

	result := v.scoreCitation(ctx, c, segment)
	v.cache.Set(cache.KindCitation, cacheKey, result)
	return result
}

func (v *Verifier) scoreCitation(ctx context.Context, c model.ExtractedCitation, segment model.Segment) (result model.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("citation scoring failed",
				zap.String("citation", c.ID),
				zap.Any("panic", r))
			result = fallbackResult(c, v.now())
		}
	}()

	verification := make(map[string]float64)
	var issues, suggestions []string
	meta := model.VerificationMetadata{
		Method:    "gateway",
		Timestamp: v.now(),
	}

	// URL check runs before the authority lookup: authority depends on a
	// reachable host.
	if c.URL != "" {
		validation := v.gateway.ValidateURL(ctx, c.URL)
		meta.URLValid = validation.IsValid && validation.IsAccessible

		if !meta.URLValid {
			issues = append(issues, "URL is not accessible: "+c.URL)
			suggestions = append(suggestions, "Replace with an accessible source or verify the link manually")
			verification["authorityScore"] = 0
		} else {
			da := v.resolveDomainAuthority(ctx, hostOf(c.URL))
			meta.DomainAuthority = da
			verification["authorityScore"] = authorityCriterion(da)
		}
	}

	if c.DOI != "" {
		doiResult := v.gateway.VerifyDOI(ctx, c.DOI)
		valid := doiResult.Valid
		meta.DOIValid = &valid

		if valid {
			// A resolving DOI guarantees at least a strong authority signal
			if verification["authorityScore"] < 8 {
				verification["authorityScore"] = 8
			}
		} else {
			issues = append(issues, "DOI could not be resolved: "+c.DOI)
		}
	}

	verification["sourceReputation"] = sourceReputation(c, segment)
	verification["recency"] = recency(c, currentYear(v.now))
	verification["relevanceScore"] = v.analyzeRelevance(ctx, c)
	segmentCriteria(c, segment, verification)

	overall := model.MeanScore(verification)

	return model.VerificationResult{
		Citation:     c,
		Verification: verification,
		OverallScore: overall,
		Status:       model.StatusForScore(overall),
		Issues:       issues,
		Suggestions:  suggestions,
		Metadata:     meta,
	}
}

// fallbackResult is the defined degradation for an unexpected scoring
// failure: every criterion at 5, status unverified, and a manual-check
// suggestion.
func fallbackResult(c model.ExtractedCitation, now time.Time) model.VerificationResult {
	verification := map[string]float64{
		"sourceReputation": defaultCriterionScore,
		"recency":          defaultCriterionScore,
		"authorityScore":   defaultCriterionScore,
		"relevanceScore":   defaultCriterionScore,
	}
	return model.VerificationResult{
		Citation:     c,
		Verification: verification,
		OverallScore: defaultCriterionScore,
		Status:       model.StatusUnverified,
		Suggestions:  []string{"Verify this citation manually"},
		Metadata: model.VerificationMetadata{
			Method:    "fallback",
			Timestamp: now,
		},
	}
}

// summarize builds the short content preview carried on reports
func summarize(content model.Content) string {
	var b strings.Builder
	for _, section := range content.Normalize() {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(section.Text)
		if b.Len() >= summaryLength {
			break
		}
	}

	summary := b.String()
	if len(summary) > summaryLength {
		summary = summary[:summaryLength] + "..."
	}
	return summary
}

package verify

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
)

// defaultCriterionScore is the degraded value used when a scoring input is
// missing or a collaborator fails.
const defaultCriterionScore = 5.0

// reputableSources are the per-segment allow-lists used for the
// sourceReputation criterion
var reputableSources = map[model.Segment][]string{
	model.SegmentB2B: {
		"harvard business review", "gartner", "forrester", "mckinsey",
		"deloitte", "mit sloan", "ieee", "nature", "science", "pubmed",
		"oecd", "world bank", "bloomberg", "economist", "wall street journal",
	},
	model.SegmentB2C: {
		"consumer reports", "mayo clinic", "pew research", "nih",
		"national institutes of health", "cdc", "fda", "nature", "bbc",
		"reuters", "associated press", "better business bureau",
	},
}

// factCheckSources mark a citation as fact-check grade for the b2c
// claimVerification criterion
var factCheckSources = []string{
	"snopes", "factcheck.org", "politifact", "reuters fact check",
	"ap fact check", "full fact",
}

var rigorKeywords = []string{
	"study", "methodology", "peer-review", "peer reviewed", "sample",
	"randomized", "meta-analysis", "survey of", "dataset",
}

var industryKeywords = []string{
	"industry", "enterprise", "b2b", "market", "business", "sector",
	"vertical", "saas",
}

var consumerKeywords = []string{
	"consumer", "customer", "buyer", "household", "everyday", "shopper",
	"user",
}

// firstNumber extracts the leading numeric rating from an LLM reply
var firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// sourceReputation scores how reputable the citation's source is: 9 on an
// allow-list match, 6 for a known-but-unlisted source, 5 when the source is
// unknown.
func sourceReputation(c model.ExtractedCitation, segment model.Segment) float64 {
	source := strings.ToLower(c.Source)
	if source == "" {
		source = hostOf(c.URL)
	}
	if source == "" {
		return defaultCriterionScore
	}

	for _, reputable := range reputableSources[segment] {
		if strings.Contains(source, reputable) {
			return 9
		}
	}
	return 6
}

// recency applies the stepped decay by citation age; unknown year scores
// the degraded default.
func recency(c model.ExtractedCitation, currentYear int) float64 {
	if c.Year <= 0 {
		return defaultCriterionScore
	}

	age := currentYear - c.Year
	switch {
	case age <= 1:
		return 10
	case age <= 2:
		return 9
	case age <= 3:
		return 8
	case age <= 5:
		return 7
	case age <= 10:
		return 6
	default:
		score := 6 - float64(age)/5
		if score < 1 {
			return 1
		}
		return score
	}
}

// analyzeRelevance delegates relevance rating to the text-generation
// collaborator. Any failure or non-numeric reply falls back to exactly 5.
func (v *Verifier) analyzeRelevance(ctx context.Context, c model.ExtractedCitation) float64 {
	if v.provider == nil {
		return defaultCriterionScore
	}

	prompt := fmt.Sprintf(`Rate how relevant this citation is to the content around it on a scale of 1 to 10.
Reply with a single number only.

Citation: %s
Context: %s`, describeCitation(c), c.Text)

	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   10,
		Temperature: 0.1,
	})
	if err != nil {
		v.logger.Debug("relevance analysis unavailable", zap.Error(err))
		return defaultCriterionScore
	}

	match := firstNumber.FindString(resp.Text)
	if match == "" {
		return defaultCriterionScore
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return defaultCriterionScore
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

// segmentCriteria adds the audience-specific criteria to the verification
// map
func segmentCriteria(c model.ExtractedCitation, segment model.Segment, verification map[string]float64) {
	text := strings.ToLower(c.Text + " " + c.Title + " " + c.Source)

	switch segment {
	case model.SegmentB2B:
		switch {
		case c.Type == model.CitationTypeAcademic || c.DOI != "":
			verification["methodologyRigor"] = 9
		case containsAny(text, rigorKeywords):
			verification["methodologyRigor"] = 7
		default:
			verification["methodologyRigor"] = 5
		}

		if containsAny(text, industryKeywords) {
			verification["industryRelevance"] = 8
		} else {
			verification["industryRelevance"] = 6
		}

	case model.SegmentB2C:
		if containsAny(text, consumerKeywords) {
			verification["audienceRelevance"] = 8
		} else {
			verification["audienceRelevance"] = 6
		}

		source := strings.ToLower(c.Source)
		if source == "" {
			source = hostOf(c.URL)
		}
		if containsAny(source, factCheckSources) {
			verification["claimVerification"] = 10
		} else {
			verification["claimVerification"] = 6
		}
	}
}

func describeCitation(c model.ExtractedCitation) string {
	switch {
	case c.Title != "":
		parts := []string{c.Title}
		if len(c.Authors) > 0 {
			parts = append([]string{strings.Join(c.Authors, ", ")}, parts...)
		}
		if c.Source != "" {
			parts = append(parts, c.Source)
		}
		return strings.Join(parts, ". ")
	case c.URL != "":
		return c.URL
	case c.DOI != "":
		return "doi:" + c.DOI
	default:
		return c.Text
	}
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	rest := rawURL
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.ToLower(rest)
}

// currentYear is split out so recency is testable against a fixed clock
func currentYear(now func() time.Time) int {
	return now().Year()
}

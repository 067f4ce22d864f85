package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
)

const (
	urlContextRadius = 100
	doiContextRadius = 150
)

var (
	urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

	// Matches doi: / DOI: prefixed identifiers and bare doi.org paths
	doiPattern = regexp.MustCompile(`(?i)(?:doi:\s*|doi\.org/)(10\.\d{4,9}/[^\s<>"'\)\]]+)`)

	// Author(s) (Year). Title. Source.
	academicPattern = regexp.MustCompile(`([A-Z][A-Za-z.\-']+(?:(?:,\s*|\s+(?:and|&)\s+)[A-Z][A-Za-z.\-']+)*)\s*\((\d{4})\)\.\s*([^.]+)\.\s*([^.\n]+)\.`)
)

// Extractor scans structured content for URL, DOI, and academic-style
// citations using layered pattern matchers plus an optional AI-assisted
// structured-extraction pass.
type Extractor struct {
	provider llm.Provider // nil disables the AI-assisted pass
	logger   *zap.Logger
}

// NewExtractor creates a new citation extractor
func NewExtractor(provider llm.Provider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{provider: provider, logger: logger}
}

// Extract scans content for citations. Absent or empty content yields zero
// citations, never an error; only the returned result communicates outcome.
func (e *Extractor) Extract(ctx context.Context, content model.Content) (result model.ExtractionResult) {
	start := time.Now()

	// Unexpected failures degrade to an empty result rather than surfacing.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("citation extraction failed", zap.Any("panic", r))
			result = model.ExtractionResult{
				Citations:        []model.ExtractedCitation{},
				ByType:           map[string]int{},
				BySection:        map[string]int{},
				ExtractionMethod: "error-fallback",
				Confidence:       0,
				ProcessingTimeMS: time.Since(start).Milliseconds(),
			}
		}
	}()

	sections := content.Normalize()

	var found []model.ExtractedCitation
	for _, section := range sections {
		found = append(found, extractURLs(section)...)
		found = append(found, extractDOIs(section)...)
		found = append(found, extractAcademic(section)...)
	}

	method := "pattern"
	if e.provider != nil && len(sections) > 0 {
		aiCitations, err := e.extractWithAI(ctx, sections)
		if err != nil {
			// AI assistance is best-effort: errors contribute zero citations
			e.logger.Debug("ai-assisted extraction unavailable", zap.Error(err))
		} else {
			found = append(found, aiCitations...)
			method = "pattern+ai"
		}
	}

	citations := dedupe(found)
	for i := range citations {
		citations[i].ID = fmt.Sprintf("cite-%d", i+1)
	}

	byType := make(map[string]int)
	bySection := make(map[string]int)
	for _, c := range citations {
		byType[string(c.Type)]++
		bySection[c.Section]++
	}

	return model.ExtractionResult{
		Citations:        citations,
		TotalFound:       len(citations),
		ByType:           byType,
		BySection:        bySection,
		ExtractionMethod: method,
		Confidence:       confidence(citations),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
}

// extractURLs finds http(s) tokens and captures surrounding context
func extractURLs(section model.Section) []model.ExtractedCitation {
	var citations []model.ExtractedCitation
	for _, loc := range urlPattern.FindAllStringIndex(section.Text, -1) {
		rawURL := strings.TrimRight(section.Text[loc[0]:loc[1]], ".,;:!?")
		citations = append(citations, model.ExtractedCitation{
			Text:     contextSnippet(section.Text, loc[0], loc[0]+len(rawURL), urlContextRadius),
			URL:      rawURL,
			Section:  section.Name,
			Position: model.Position{Start: loc[0], End: loc[0] + len(rawURL)},
			Type:     model.CitationTypeURL,
		})
	}
	return citations
}

// extractDOIs finds DOI-prefixed tokens and synthesizes the canonical
// resolver URL
func extractDOIs(section model.Section) []model.ExtractedCitation {
	var citations []model.ExtractedCitation
	for _, loc := range doiPattern.FindAllStringSubmatchIndex(section.Text, -1) {
		doi := strings.TrimRight(section.Text[loc[2]:loc[3]], ".,;:!?")
		citations = append(citations, model.ExtractedCitation{
			Text:     contextSnippet(section.Text, loc[0], loc[1], doiContextRadius),
			DOI:      doi,
			URL:      "https://doi.org/" + doi,
			Section:  section.Name,
			Position: model.Position{Start: loc[0], End: loc[1]},
			Type:     model.CitationTypeDOI,
		})
	}
	return citations
}

// extractAcademic matches Author(s) (Year). Title. Source. style citations
func extractAcademic(section model.Section) []model.ExtractedCitation {
	var citations []model.ExtractedCitation
	for _, loc := range academicPattern.FindAllStringSubmatchIndex(section.Text, -1) {
		match := section.Text[loc[0]:loc[1]]
		authors := splitAuthors(section.Text[loc[2]:loc[3]])
		year := parseYear(section.Text[loc[4]:loc[5]])
		title := strings.TrimSpace(section.Text[loc[6]:loc[7]])
		source := strings.TrimSpace(section.Text[loc[8]:loc[9]])

		citations = append(citations, model.ExtractedCitation{
			Text:     match,
			Authors:  authors,
			Year:     year,
			Title:    title,
			Source:   source,
			Section:  section.Name,
			Position: model.Position{Start: loc[0], End: loc[1]},
			Type:     classifyAcademic(title, source),
		})
	}
	return citations
}

// splitAuthors splits an author list on "and", "&", and commas
func splitAuthors(raw string) []string {
	raw = strings.ReplaceAll(raw, " & ", ",")
	raw = strings.ReplaceAll(raw, " and ", ",")
	parts := strings.Split(raw, ",")

	var authors []string
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

func parseYear(raw string) int {
	year := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// classifyAcademic refines the citation type from title/source wording
func classifyAcademic(title, source string) model.CitationType {
	lower := strings.ToLower(title + " " + source)
	switch {
	case strings.Contains(lower, "report") || strings.Contains(lower, "white paper") || strings.Contains(lower, "survey"):
		return model.CitationTypeReport
	case strings.Contains(lower, "press") || strings.Contains(lower, "publish") || strings.Contains(lower, "books"):
		return model.CitationTypeBook
	default:
		return model.CitationTypeAcademic
	}
}

// contextSnippet returns the match plus up to radius characters on each side
func contextSnippet(text string, start, end, radius int) string {
	from := start - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

// dedupe removes duplicate citations by identity key, first occurrence wins
func dedupe(citations []model.ExtractedCitation) []model.ExtractedCitation {
	seen := make(map[string]bool)
	unique := make([]model.ExtractedCitation, 0, len(citations))

	for _, c := range citations {
		key := c.DedupKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}

	return unique
}

// confidence scores an extraction run: 0.5 base, +0.3 scaled by the fraction
// of citations carrying a strong identity field, +0.2 scaled by type
// diversity, capped at 1.0.
func confidence(citations []model.ExtractedCitation) float64 {
	if len(citations) == 0 {
		return 0.5
	}

	identified := 0
	types := make(map[model.CitationType]bool)
	for _, c := range citations {
		if c.URL != "" || c.DOI != "" || len(c.Authors) > 0 {
			identified++
		}
		types[c.Type] = true
	}

	score := 0.5
	score += 0.3 * float64(identified) / float64(len(citations))
	score += 0.2 * float64(len(types)) / 5.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

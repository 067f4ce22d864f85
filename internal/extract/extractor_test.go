package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
)

// fakeProvider implements llm.Provider for tests
type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.response}, nil
}

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return f.err == nil }

func TestExtract_EmptyContent(t *testing.T) {
	e := NewExtractor(nil, nil)

	result := e.Extract(context.Background(), model.Content{})

	if result.TotalFound != 0 {
		t.Errorf("Expected 0 citations for empty content, got %d", result.TotalFound)
	}
	if len(result.Citations) != 0 {
		t.Errorf("Expected empty citations slice, got %v", result.Citations)
	}
}

func TestExtract_URL(t *testing.T) {
	e := NewExtractor(nil, nil)

	content := model.NewTextContent("See https://www.nature.com/articles/123 for details")
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 1 {
		t.Fatalf("Expected 1 citation, got %d", result.TotalFound)
	}

	c := result.Citations[0]
	if c.Type != model.CitationTypeURL {
		t.Errorf("Expected type url, got %s", c.Type)
	}
	if c.URL != "https://www.nature.com/articles/123" {
		t.Errorf("Unexpected URL: %s", c.URL)
	}
	if c.ID != "cite-1" {
		t.Errorf("Expected sequential ID cite-1, got %s", c.ID)
	}
	if c.Text == "" {
		t.Error("Expected context snippet to be captured")
	}
}

func TestExtract_DOI(t *testing.T) {
	e := NewExtractor(nil, nil)

	content := model.NewTextContent("The study (doi:10.1038/s41586-020-2649-2) showed significant results.")
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 1 {
		t.Fatalf("Expected 1 citation, got %d", result.TotalFound)
	}

	c := result.Citations[0]
	if c.Type != model.CitationTypeDOI {
		t.Errorf("Expected type doi, got %s", c.Type)
	}
	if c.DOI != "10.1038/s41586-020-2649-2" {
		t.Errorf("Unexpected DOI: %s", c.DOI)
	}
	if c.URL != "https://doi.org/10.1038/s41586-020-2649-2" {
		t.Errorf("Expected canonical resolver URL, got %s", c.URL)
	}
}

func TestExtract_Academic(t *testing.T) {
	e := NewExtractor(nil, nil)

	content := model.NewTextContent("Smith and Jones (2021). Machine learning in practice. Journal of AI Research.")
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 1 {
		t.Fatalf("Expected 1 citation, got %d: %+v", result.TotalFound, result.Citations)
	}

	c := result.Citations[0]
	if c.Type != model.CitationTypeAcademic {
		t.Errorf("Expected type academic, got %s", c.Type)
	}
	if len(c.Authors) != 2 || c.Authors[0] != "Smith" || c.Authors[1] != "Jones" {
		t.Errorf("Unexpected authors: %v", c.Authors)
	}
	if c.Year != 2021 {
		t.Errorf("Expected year 2021, got %d", c.Year)
	}
	if c.Title != "Machine learning in practice" {
		t.Errorf("Unexpected title: %q", c.Title)
	}
	if c.Source != "Journal of AI Research" {
		t.Errorf("Unexpected source: %q", c.Source)
	}
}

func TestExtract_DedupSameURL(t *testing.T) {
	e := NewExtractor(nil, nil)

	// Same URL appears twice: as a bare link and inside a citation sentence
	content := model.NewTextContent(
		"Read https://example.com/study for background. " +
			"As noted in the analysis at https://example.com/study published last year.")
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 1 {
		t.Errorf("Expected exactly 1 citation after dedup, got %d", result.TotalFound)
	}
}

func TestExtract_Sections(t *testing.T) {
	e := NewExtractor(nil, nil)

	content := model.Content{
		Sections: map[string]model.SectionValue{
			"intro":   {Text: "See https://a.example.com first."},
			"methods": {Content: "Also https://b.example.com applies."},
		},
	}
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 2 {
		t.Fatalf("Expected 2 citations, got %d", result.TotalFound)
	}
	if result.BySection["intro"] != 1 || result.BySection["methods"] != 1 {
		t.Errorf("Unexpected section breakdown: %v", result.BySection)
	}
}

func TestExtract_AIProviderError_Degrades(t *testing.T) {
	e := NewExtractor(&fakeProvider{err: errors.New("provider down")}, nil)

	content := model.NewTextContent("See https://example.com/paper for details.")
	result := e.Extract(context.Background(), content)

	// The pattern matchers still contribute; the AI pass silently adds nothing
	if result.TotalFound != 1 {
		t.Errorf("Expected 1 citation from pattern matchers, got %d", result.TotalFound)
	}
	if result.ExtractionMethod != "pattern" {
		t.Errorf("Expected method pattern, got %s", result.ExtractionMethod)
	}
}

func TestExtract_AIContributesCitations(t *testing.T) {
	response := `[{"text": "Annual industry report", "title": "State of the Industry", "source": "Gartner", "year": 2023, "type": "report"}]`
	e := NewExtractor(&fakeProvider{response: response}, nil)

	content := model.NewTextContent("See https://example.com/paper for details.")
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 2 {
		t.Fatalf("Expected 2 citations (pattern + ai), got %d", result.TotalFound)
	}
	if result.ExtractionMethod != "pattern+ai" {
		t.Errorf("Expected method pattern+ai, got %s", result.ExtractionMethod)
	}
	if result.ByType["report"] != 1 {
		t.Errorf("Expected one report-type citation, got %v", result.ByType)
	}
}

func TestExtract_AIMalformedJSON_Degrades(t *testing.T) {
	e := NewExtractor(&fakeProvider{response: "I could not find any citations, sorry!"}, nil)

	content := model.NewTextContent("See https://example.com/paper for details.")
	result := e.Extract(context.Background(), content)

	if result.TotalFound != 1 {
		t.Errorf("Expected 1 citation, got %d", result.TotalFound)
	}
}

func TestParseAICitations_FencedBlock(t *testing.T) {
	text := "```json\n[{\"url\": \"https://example.com\", \"type\": \"url\"}]\n```"
	parsed, err := parseAICitations(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed) != 1 || parsed[0].URL != "https://example.com" {
		t.Errorf("Unexpected parse result: %+v", parsed)
	}
}

func TestConfidence_Bounds(t *testing.T) {
	// All citations identified, all five types present: capped at 1.0
	citations := []model.ExtractedCitation{
		{URL: "https://a.example.com", Type: model.CitationTypeURL},
		{DOI: "10.1/x", Type: model.CitationTypeDOI},
		{Authors: []string{"Smith"}, Type: model.CitationTypeAcademic},
		{URL: "https://b.example.com", Type: model.CitationTypeBook},
		{URL: "https://c.example.com", Type: model.CitationTypeReport},
	}

	score := confidence(citations)
	if score != 1.0 {
		t.Errorf("Expected capped confidence 1.0, got %f", score)
	}

	// No identity fields, one type
	weak := []model.ExtractedCitation{{Text: "some passage", Type: model.CitationTypeOther}}
	score = confidence(weak)
	if score <= 0.5 || score > 0.6 {
		t.Errorf("Expected confidence slightly above 0.5, got %f", score)
	}
}

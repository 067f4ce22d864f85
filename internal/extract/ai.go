package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
)

// aiPromptLimit caps how much content is sent to the text-generation
// collaborator for structured extraction.
const aiPromptLimit = 8000

const aiSystemPrompt = "You are a citation extraction assistant. You respond only with valid JSON."

// aiCitation is the wire shape the model is asked to return
type aiCitation struct {
	Text    string   `json:"text"`
	URL     string   `json:"url"`
	DOI     string   `json:"doi"`
	Authors []string `json:"authors"`
	Year    int      `json:"year"`
	Title   string   `json:"title"`
	Source  string   `json:"source"`
	Type    string   `json:"type"`
	Section string   `json:"section"`
}

// extractWithAI asks the text-generation collaborator for a structured JSON
// list of citations. Any provider or parse failure returns an error the
// caller treats as "zero citations contributed".
func (e *Extractor) extractWithAI(ctx context.Context, sections []model.Section) ([]model.ExtractedCitation, error) {
	var buf strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&buf, "[%s]\n%s\n\n", s.Name, s.Text)
		if buf.Len() >= aiPromptLimit {
			break
		}
	}
	text := buf.String()
	if len(text) > aiPromptLimit {
		text = text[:aiPromptLimit]
	}

	prompt := fmt.Sprintf(`Extract every citation or source reference from the content below.
Return a JSON array of objects with these fields (omit unknown fields):
  text, url, doi, authors (array), year (number), title, source,
  type (one of: url, doi, academic, book, report, other), section

Return only the JSON array, no commentary.

Content:
%s`, text)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		System:      aiSystemPrompt,
		MaxTokens:   1500,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	parsed, err := parseAICitations(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}

	citations := make([]model.ExtractedCitation, 0, len(parsed))
	for _, ac := range parsed {
		c := model.ExtractedCitation{
			Text:    ac.Text,
			URL:     ac.URL,
			DOI:     ac.DOI,
			Authors: ac.Authors,
			Year:    ac.Year,
			Title:   ac.Title,
			Source:  ac.Source,
			Section: ac.Section,
			Type:    normalizeType(ac.Type),
		}
		if c.Section == "" {
			c.Section = sections[0].Name
		}
		// At least one identity field or context text must be present
		if c.URL == "" && c.DOI == "" && c.Text == "" && c.Title == "" {
			continue
		}
		if c.Text == "" {
			c.Text = c.Title
		}
		citations = append(citations, c)
	}

	return citations, nil
}

// parseAICitations decodes the model response, tolerating fenced code blocks
// and leading prose around the JSON array.
func parseAICitations(text string) ([]aiCitation, error) {
	text = strings.TrimSpace(text)

	// Strip markdown fences if present
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Locate the array if the model wrapped it in prose
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var parsed []aiCitation
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func normalizeType(raw string) model.CitationType {
	switch model.CitationType(strings.ToLower(strings.TrimSpace(raw))) {
	case model.CitationTypeURL:
		return model.CitationTypeURL
	case model.CitationTypeDOI:
		return model.CitationTypeDOI
	case model.CitationTypeAcademic:
		return model.CitationTypeAcademic
	case model.CitationTypeBook:
		return model.CitationTypeBook
	case model.CitationTypeReport:
		return model.CitationTypeReport
	default:
		return model.CitationTypeOther
	}
}

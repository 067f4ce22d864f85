package model

import "sort"

// ExtractedCitation represents a single reference identified inside content
type ExtractedCitation struct {
	ID       string       `json:"id"`                 // Assigned post-dedup, sequential within one extraction run
	Text     string       `json:"text,omitempty"`     // Surrounding context snippet
	URL      string       `json:"url,omitempty"`      // Full URL, if the citation carries one
	DOI      string       `json:"doi,omitempty"`      // DOI identifier (without resolver prefix)
	Authors  []string     `json:"authors,omitempty"`  // Author list for academic-style citations
	Year     int          `json:"year,omitempty"`     // Publication year (0 = unknown)
	Title    string       `json:"title,omitempty"`    // Work title
	Source   string       `json:"source,omitempty"`   // Journal, publisher, or site name
	Section  string       `json:"section"`            // Logical content region it was found in
	Position Position     `json:"position"`           // Character offsets within the section
	Type     CitationType `json:"type"`
	Enhanced bool         `json:"enhanced,omitempty"` // Set when the citation was swapped during enhancement
}

// Position holds the character offsets of a match within its section
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CitationType classifies the kind of citation found
type CitationType string

const (
	CitationTypeURL      CitationType = "url"
	CitationTypeDOI      CitationType = "doi"
	CitationTypeAcademic CitationType = "academic"
	CitationTypeBook     CitationType = "book"
	CitationTypeReport   CitationType = "report"
	CitationTypeOther    CitationType = "other"
)

// DedupKey returns the identity key used to collapse duplicate citations:
// URL, else DOI, else the first 100 characters of the context text.
func (c ExtractedCitation) DedupKey() string {
	if c.URL != "" {
		return c.URL
	}
	if c.DOI != "" {
		return c.DOI
	}
	text := c.Text
	if len(text) > 100 {
		text = text[:100]
	}
	return text
}

// ExtractionResult is the outcome of one extraction run
type ExtractionResult struct {
	Citations        []ExtractedCitation `json:"citations"`
	TotalFound       int                 `json:"total_found"`
	ByType           map[string]int      `json:"by_type"`
	BySection        map[string]int      `json:"by_section"`
	ExtractionMethod string              `json:"extraction_method"`
	Confidence       float64             `json:"confidence"`
	ProcessingTimeMS int64               `json:"processing_time_ms"`
}

// Section is a named region of normalized content
type Section struct {
	Name string
	Text string
}

// Content is the tagged union accepted at the extractor boundary: a plain
// string, an object with a single content field, or an object with a
// sections map whose values are strings or {content} objects.
type Content struct {
	Raw      string
	Body     string
	Sections map[string]SectionValue
}

// SectionValue is one entry of a Content sections map
type SectionValue struct {
	Text    string
	Content string
}

// NewTextContent wraps a plain string as Content
func NewTextContent(text string) Content {
	return Content{Raw: text}
}

// Normalize flattens any accepted content shape into an ordered list of
// named sections. Plain strings and single-body objects become one "content"
// section. Empty content normalizes to zero sections.
func (c Content) Normalize() []Section {
	if len(c.Sections) > 0 {
		sections := make([]Section, 0, len(c.Sections))
		for _, name := range sortedKeys(c.Sections) {
			v := c.Sections[name]
			text := v.Text
			if text == "" {
				text = v.Content
			}
			if text == "" {
				continue
			}
			sections = append(sections, Section{Name: name, Text: text})
		}
		return sections
	}

	body := c.Raw
	if body == "" {
		body = c.Body
	}
	if body == "" {
		return nil
	}
	return []Section{{Name: "content", Text: body}}
}

func sortedKeys(m map[string]SectionValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

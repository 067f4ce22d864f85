package model

import "time"

// Segment is the target audience category that parameterizes scoring
type Segment string

const (
	SegmentB2B Segment = "b2b"
	SegmentB2C Segment = "b2c"
)

// VerificationReport is the aggregated outcome of verifying all citations in
// one piece of content
type VerificationReport struct {
	ContentSummary          string               `json:"content_summary"`
	Citations               []VerificationResult `json:"citations"` // Sorted descending by overall score
	OverallCredibilityScore float64              `json:"overall_credibility_score"`
	CitationCount           int                  `json:"citation_count"`
	Segment                 Segment              `json:"segment"`
	Timestamp               time.Time            `json:"timestamp"`
	ProcessingTimeMS        int64                `json:"processing_time_ms"`
	Error                   string               `json:"error,omitempty"` // Set only by the top-level fallback
}

// EnhancementReport compares credibility before and after authority
// enhancement
type EnhancementReport struct {
	OriginalScore     float64              `json:"original_score"`
	EnhancedScore     float64              `json:"enhanced_score"`
	OriginalCitations int                  `json:"original_citations"`
	EnhancedCitations int                  `json:"enhanced_citations"`
	Enhanced          []VerificationResult `json:"enhanced"`
	UpdatedContent    Content              `json:"-"`
	Segment           Segment              `json:"segment"`
	Timestamp         time.Time            `json:"timestamp"`
}

// CitationStrategy is the recommended sourcing approach for a topic/segment
type CitationStrategy struct {
	Topic              string              `json:"topic"`
	Segment            Segment             `json:"segment"`
	RecommendedSources []string            `json:"recommended_sources"`
	CitationFormats    []string            `json:"citation_formats"`
	AuthorityHierarchy []AuthorityTierInfo `json:"authority_hierarchy"`
	DensityGuidance    string              `json:"density_guidance"`
	VisualPresentation []string            `json:"visual_presentation"`
}

// AuthorityTierInfo describes one tier of the four-tier source hierarchy
type AuthorityTierInfo struct {
	Tier        int      `json:"tier"`
	Label       string   `json:"label"`
	Examples    []string `json:"examples"`
	TargetShare string   `json:"target_share"`
}

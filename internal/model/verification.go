package model

import (
	"math"
	"time"
)

// VerificationStatus is the categorical authority tier derived from the
// overall score
type VerificationStatus string

const (
	StatusHighAuthority     VerificationStatus = "high_authority"
	StatusModerateAuthority VerificationStatus = "moderate_authority"
	StatusLowAuthority      VerificationStatus = "low_authority"
	StatusUnverified        VerificationStatus = "unverified"
)

// Score thresholds are fixed constants: >8 high, >6 moderate.
const (
	HighAuthorityThreshold     = 8.0
	ModerateAuthorityThreshold = 6.0
)

// StatusForScore maps an overall score to its verification status
func StatusForScore(score float64) VerificationStatus {
	switch {
	case score > HighAuthorityThreshold:
		return StatusHighAuthority
	case score > ModerateAuthorityThreshold:
		return StatusModerateAuthority
	default:
		return StatusLowAuthority
	}
}

// VerificationResult is the scored outcome for one citation
type VerificationResult struct {
	Citation     ExtractedCitation    `json:"citation"`
	Verification map[string]float64   `json:"verification"` // Named criterion scores, 0-10
	OverallScore float64              `json:"overall_score"`
	Status       VerificationStatus   `json:"verification_status"`
	Issues       []string             `json:"issues,omitempty"`
	Suggestions  []string             `json:"suggestions,omitempty"`
	Metadata     VerificationMetadata `json:"metadata"`
}

// VerificationMetadata records how a result was produced
type VerificationMetadata struct {
	Method          string           `json:"method"` // e.g. "gateway", "cache", "fallback"
	Timestamp       time.Time        `json:"timestamp"`
	URLValid        bool             `json:"url_valid"`
	DomainAuthority *DomainAuthority `json:"domain_authority,omitempty"`
	DOIValid        *bool            `json:"doi_valid,omitempty"`
}

// MeanScore returns the arithmetic mean of all numeric criteria, rounded to
// two decimals. Zero criteria yield zero.
func MeanScore(verification map[string]float64) float64 {
	if len(verification) == 0 {
		return 0
	}
	var sum float64
	for _, v := range verification {
		sum += v
	}
	return Round2(sum / float64(len(verification)))
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DomainAuthoritySource identifies which provider produced a domain signal
type DomainAuthoritySource string

const (
	SourceMoz       DomainAuthoritySource = "moz"
	SourceAhrefs    DomainAuthoritySource = "ahrefs"
	SourceHeuristic DomainAuthoritySource = "internal-heuristic"
)

// DomainAuthority is the third-party reputation signal for a hostname
type DomainAuthority struct {
	Domain           string                `json:"domain"`
	AuthorityScore   float64               `json:"authority_score"` // 0-100
	TrustScore       float64               `json:"trust_score"`
	SpamScore        float64               `json:"spam_score,omitempty"`
	Backlinks        int64                 `json:"backlinks,omitempty"`
	ReferringDomains int64                 `json:"referring_domains,omitempty"`
	IsGovernment     bool                  `json:"is_government"`
	IsEducational    bool                  `json:"is_educational"`
	IsNonProfit      bool                  `json:"is_non_profit"`
	IsNews           bool                  `json:"is_news"`
	Source           DomainAuthoritySource `json:"source"`
}

// URLValidation is the outcome of a reachability probe
type URLValidation struct {
	URL          string        `json:"url"`
	IsValid      bool          `json:"is_valid"`      // Well-formed
	IsAccessible bool          `json:"is_accessible"` // Reachable with status < 400
	StatusCode   int           `json:"status_code,omitempty"`
	ContentType  string        `json:"content_type,omitempty"`
	Title        string        `json:"title,omitempty"`
	IsSecure     bool          `json:"is_secure"` // Scheme is https
	Errors       []string      `json:"errors,omitempty"`
	ResponseTime time.Duration `json:"response_time_ms"`
}

// DOIVerification is the outcome of a registry lookup
type DOIVerification struct {
	DOI      string            `json:"doi"`
	Valid    bool              `json:"valid"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

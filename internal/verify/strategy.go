package verify

import (
	"fmt"

	"github.com/citelens/citelens/internal/model"
)

// Strategy returns the recommended sourcing approach for a topic and
// audience segment. Pure function: no external calls, deterministic output.
func Strategy(topic string, segment model.Segment) model.CitationStrategy {
	strategy := model.CitationStrategy{
		Topic:              topic,
		Segment:            segment,
		AuthorityHierarchy: authorityHierarchy(segment),
	}

	switch segment {
	case model.SegmentB2C:
		strategy.RecommendedSources = []string{
			"Government health and consumer agencies",
			"Established consumer advocacy organizations",
			"Major news outlets with fact-checking desks",
			"Peer-reviewed studies translated for general readers",
		}
		strategy.CitationFormats = []string{
			"Inline link with source name",
			"Plain-language summary with a 'according to' attribution",
			"Numbered footnotes for longer guides",
		}
		strategy.DensityGuidance = fmt.Sprintf(
			"For %s content aimed at consumers, cite one authoritative source per major claim; two to four citations per thousand words keeps trust high without overwhelming readers.", topic)
		strategy.VisualPresentation = []string{
			"Callout boxes for key statistics",
			"Source logos next to quoted claims",
			"A short 'Sources' list at the end of the page",
		}
	default:
		strategy.RecommendedSources = []string{
			"Peer-reviewed journals and conference proceedings",
			"Industry analyst reports (Gartner, Forrester, IDC)",
			"Government and intergovernmental statistics",
			"Original vendor-neutral benchmark studies",
		}
		strategy.CitationFormats = []string{
			"Author-year inline citation with a linked reference list",
			"DOI-resolvable references for academic sources",
			"Report title, publisher, and year for analyst material",
		}
		strategy.DensityGuidance = fmt.Sprintf(
			"For %s content aimed at business decision-makers, support every quantitative claim with a citation; five to eight citations per thousand words signals rigor.", topic)
		strategy.VisualPresentation = []string{
			"Data tables with per-row source attribution",
			"Charts annotated with the underlying study",
			"A methodology sidebar naming primary sources",
		}
	}

	return strategy
}

// authorityHierarchy is the four-tier source ranking recommended for a
// segment, highest authority first
func authorityHierarchy(segment model.Segment) []model.AuthorityTierInfo {
	if segment == model.SegmentB2C {
		return []model.AuthorityTierInfo{
			{Tier: 1, Label: "Government and medical authorities", Examples: []string{"CDC", "FDA", "NIH"}, TargetShare: "40%"},
			{Tier: 2, Label: "Consumer research organizations", Examples: []string{"Consumer Reports", "Pew Research Center"}, TargetShare: "30%"},
			{Tier: 3, Label: "Major news outlets", Examples: []string{"BBC", "Reuters", "Associated Press"}, TargetShare: "20%"},
			{Tier: 4, Label: "Expert practitioners and reviews", Examples: []string{"Licensed professionals", "Verified review aggregates"}, TargetShare: "10%"},
		}
	}

	return []model.AuthorityTierInfo{
		{Tier: 1, Label: "Peer-reviewed research", Examples: []string{"Nature", "IEEE", "ACM"}, TargetShare: "30%"},
		{Tier: 2, Label: "Industry analyst firms", Examples: []string{"Gartner", "Forrester", "McKinsey"}, TargetShare: "30%"},
		{Tier: 3, Label: "Government and standards bodies", Examples: []string{"OECD", "NIST", "World Bank"}, TargetShare: "25%"},
		{Tier: 4, Label: "Established business press", Examples: []string{"Harvard Business Review", "The Economist"}, TargetShare: "15%"},
	}
}

package verify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/citelens/citelens/internal/cache"
	"github.com/citelens/citelens/internal/extract"
	"github.com/citelens/citelens/internal/llm"
	"github.com/citelens/citelens/internal/model"
)

// stubGateway implements AuthorityGateway with canned responses
type stubGateway struct {
	urlResult   model.URLValidation
	mozResult   *model.DomainAuthority
	mozErr      error
	ahrefs      *model.DomainAuthority
	ahrefsErr   error
	doiResult   model.DOIVerification
	urlCalls    int32
	scoredCalls int32
}

func (s *stubGateway) ValidateURL(ctx context.Context, rawURL string) model.URLValidation {
	atomic.AddInt32(&s.urlCalls, 1)
	result := s.urlResult
	result.URL = rawURL
	return result
}

func (s *stubGateway) MozAuthority(ctx context.Context, domain string) (*model.DomainAuthority, error) {
	atomic.AddInt32(&s.scoredCalls, 1)
	return s.mozResult, s.mozErr
}

func (s *stubGateway) AhrefsAuthority(ctx context.Context, domain string) (*model.DomainAuthority, error) {
	return s.ahrefs, s.ahrefsErr
}

func (s *stubGateway) VerifyDOI(ctx context.Context, doi string) model.DOIVerification {
	result := s.doiResult
	result.DOI = doi
	return result
}

// fakeProvider implements llm.Provider
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

func accessibleGateway() *stubGateway {
	return &stubGateway{
		urlResult: model.URLValidation{IsValid: true, IsAccessible: true, StatusCode: 200},
	}
}

func testStore() *cache.Store {
	return cache.New(cache.Options{Enabled: true, TTL: time.Hour, MaxEntries: 100})
}

func newTestVerifier(gw AuthorityGateway, store *cache.Store, provider llm.Provider) *Verifier {
	v := New(extract.NewExtractor(nil, nil), gw, store, provider, nil)
	v.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	v.pick = func(n int) int { return 0 }
	return v
}

func TestVerifyCitations_NoCitations(t *testing.T) {
	v := newTestVerifier(accessibleGateway(), testStore(), nil)

	report := v.VerifyCitations(context.Background(), model.NewTextContent("No references here."), model.SegmentB2B)

	if report.CitationCount != 0 {
		t.Errorf("Expected 0 citations, got %d", report.CitationCount)
	}
	if report.OverallCredibilityScore != 0 {
		t.Errorf("Expected score 0 without citations, got %f", report.OverallCredibilityScore)
	}
	if report.Error != "" {
		t.Errorf("Zero citations must not be an error, got %q", report.Error)
	}
}

func TestVerifyCitations_HeuristicAuthorityForKnownDomain(t *testing.T) {
	// No provider results at all: the chain must end at the heuristic
	gw := accessibleGateway()
	v := newTestVerifier(gw, testStore(), nil)

	content := model.NewTextContent("See https://www.nature.com/articles/123 for details")
	report := v.VerifyCitations(context.Background(), content, model.SegmentB2B)

	if report.CitationCount != 1 {
		t.Fatalf("Expected 1 citation, got %d", report.CitationCount)
	}

	result := report.Citations[0]
	if !result.Metadata.URLValid {
		t.Error("Expected urlValid for an accessible URL")
	}

	da := result.Metadata.DomainAuthority
	if da == nil {
		t.Fatal("Expected a domain authority result")
	}
	if da.Source != model.SourceHeuristic {
		t.Errorf("Expected heuristic source, got %s", da.Source)
	}
	if da.AuthorityScore != 90 {
		t.Errorf("Expected heuristic score 90 for nature.com, got %f", da.AuthorityScore)
	}
	if result.Verification["authorityScore"] != 9 {
		t.Errorf("Expected authority criterion 9, got %f", result.Verification["authorityScore"])
	}
	if result.Status != model.StatusForScore(result.OverallScore) {
		t.Errorf("Status %s inconsistent with score %f", result.Status, result.OverallScore)
	}
}

func TestVerifyCitations_InaccessibleURLZeroesAuthority(t *testing.T) {
	gw := &stubGateway{
		urlResult: model.URLValidation{IsValid: true, IsAccessible: false, StatusCode: 404},
	}
	v := newTestVerifier(gw, testStore(), nil)

	content := model.NewTextContent("Broken: https://gone.example.com/article")
	report := v.VerifyCitations(context.Background(), content, model.SegmentB2B)

	result := report.Citations[0]
	if result.Verification["authorityScore"] != 0 {
		t.Errorf("Expected authority 0 for inaccessible URL, got %f", result.Verification["authorityScore"])
	}
	if len(result.Issues) == 0 {
		t.Error("Expected an issue for the inaccessible URL")
	}
	if len(result.Suggestions) == 0 {
		t.Error("Expected a replacement suggestion")
	}
}

func TestVerifySingleCitation_DOIRaisesAuthorityFloor(t *testing.T) {
	gw := accessibleGateway()
	gw.doiResult = model.DOIVerification{Valid: true}
	v := newTestVerifier(gw, testStore(), nil)

	c := model.ExtractedCitation{
		ID:      "cite-1",
		DOI:     "10.1038/nature12373",
		URL:     "https://unknown-blog.example.com/post",
		Text:    "doi: 10.1038/nature12373",
		Section: "content",
		Type:    model.CitationTypeDOI,
	}
	result := v.VerifySingleCitation(context.Background(), c, model.SegmentB2B)

	if result.Verification["authorityScore"] < 8 {
		t.Errorf("Expected a valid DOI to floor authority at 8, got %f", result.Verification["authorityScore"])
	}
	if result.Metadata.DOIValid == nil || !*result.Metadata.DOIValid {
		t.Error("Expected doiValid metadata to be set")
	}
}

func TestVerifySingleCitation_InvalidDOIAddsIssue(t *testing.T) {
	gw := accessibleGateway()
	gw.doiResult = model.DOIVerification{Valid: false}
	v := newTestVerifier(gw, testStore(), nil)

	c := model.ExtractedCitation{
		ID:      "cite-1",
		DOI:     "10.9999/bogus",
		Text:    "doi: 10.9999/bogus",
		Section: "content",
		Type:    model.CitationTypeDOI,
	}
	result := v.VerifySingleCitation(context.Background(), c, model.SegmentB2B)

	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue, "10.9999/bogus") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a DOI issue, got %v", result.Issues)
	}
}

func TestVerifySingleCitation_CacheIdempotence(t *testing.T) {
	gw := accessibleGateway()
	store := testStore()
	v := newTestVerifier(gw, store, nil)

	c := model.ExtractedCitation{
		ID:      "cite-1",
		URL:     "https://www.nature.com/articles/123",
		Text:    "See https://www.nature.com/articles/123",
		Section: "content",
		Type:    model.CitationTypeURL,
	}

	first := v.VerifySingleCitation(context.Background(), c, model.SegmentB2B)
	second := v.VerifySingleCitation(context.Background(), c, model.SegmentB2B)

	if second.OverallScore != first.OverallScore || second.Status != first.Status {
		t.Error("Cached result must be returned unchanged")
	}
	if got := atomic.LoadInt32(&gw.urlCalls); got != 1 {
		t.Errorf("Expected 1 gateway probe (second call cached), got %d", got)
	}
	if stats := store.Stats(); stats.TotalHits != 1 {
		t.Errorf("Expected exactly 1 cache hit recorded, got %d", stats.TotalHits)
	}
}

func TestVerifySingleCitation_SegmentsCacheIndependently(t *testing.T) {
	gw := accessibleGateway()
	v := newTestVerifier(gw, testStore(), nil)

	c := model.ExtractedCitation{
		ID:      "cite-1",
		URL:     "https://example.com/study",
		Text:    "study",
		Section: "content",
		Type:    model.CitationTypeURL,
	}

	b2b := v.VerifySingleCitation(context.Background(), c, model.SegmentB2B)
	b2c := v.VerifySingleCitation(context.Background(), c, model.SegmentB2C)

	if _, ok := b2b.Verification["methodologyRigor"]; !ok {
		t.Error("Expected b2b criteria on the b2b result")
	}
	if _, ok := b2c.Verification["claimVerification"]; !ok {
		t.Error("Expected b2c criteria on the b2c result")
	}
	if got := atomic.LoadInt32(&gw.urlCalls); got != 2 {
		t.Errorf("Expected a separate verification per segment, got %d probes", got)
	}
}

func TestAnalyzeRelevance_Degradation(t *testing.T) {
	v := newTestVerifier(accessibleGateway(), testStore(), &fakeProvider{err: errors.New("provider down")})

	c := model.ExtractedCitation{Text: "some context", Section: "content"}
	if score := v.analyzeRelevance(context.Background(), c); score != 5.0 {
		t.Errorf("Expected relevance to degrade to exactly 5.0, got %f", score)
	}

	v = newTestVerifier(accessibleGateway(), testStore(), &fakeProvider{response: "no rating here"})
	if score := v.analyzeRelevance(context.Background(), c); score != 5.0 {
		t.Errorf("Expected non-numeric reply to degrade to 5.0, got %f", score)
	}

	v = newTestVerifier(accessibleGateway(), testStore(), nil)
	if score := v.analyzeRelevance(context.Background(), c); score != 5.0 {
		t.Errorf("Expected nil provider to degrade to 5.0, got %f", score)
	}
}

func TestAnalyzeRelevance_ParsesRating(t *testing.T) {
	v := newTestVerifier(accessibleGateway(), testStore(), &fakeProvider{response: "8"})

	c := model.ExtractedCitation{Text: "relevant context", Section: "content"}
	if score := v.analyzeRelevance(context.Background(), c); score != 8 {
		t.Errorf("Expected parsed rating 8, got %f", score)
	}
}

func TestRecency_SteppedDecay(t *testing.T) {
	tests := []struct {
		year int
		want float64
	}{
		{2026, 10},
		{2025, 10},
		{2024, 9},
		{2023, 8},
		{2021, 7},
		{2016, 6},
		{2006, 2},
		{1950, 1}, // floor
		{0, 5},    // unknown year
	}

	for _, tt := range tests {
		c := model.ExtractedCitation{Year: tt.year}
		if got := recency(c, 2026); got != tt.want {
			t.Errorf("recency(year=%d) = %f, want %f", tt.year, got, tt.want)
		}
	}
}

func TestSourceReputation(t *testing.T) {
	tests := []struct {
		name    string
		c       model.ExtractedCitation
		segment model.Segment
		want    float64
	}{
		{"allow-listed b2b source", model.ExtractedCitation{Source: "Harvard Business Review"}, model.SegmentB2B, 9},
		{"allow-listed b2c source", model.ExtractedCitation{Source: "Mayo Clinic"}, model.SegmentB2C, 9},
		{"known but unlisted", model.ExtractedCitation{Source: "Some Blog"}, model.SegmentB2B, 6},
		{"derived from URL host", model.ExtractedCitation{URL: "https://www.nature.com/articles/1"}, model.SegmentB2B, 9},
		{"unknown source", model.ExtractedCitation{Text: "just text"}, model.SegmentB2B, 5},
	}

	for _, tt := range tests {
		if got := sourceReputation(tt.c, tt.segment); got != tt.want {
			t.Errorf("%s: got %f, want %f", tt.name, got, tt.want)
		}
	}
}

func TestOverallScoreIsMeanOfCriteria(t *testing.T) {
	v := newTestVerifier(accessibleGateway(), testStore(), nil)

	c := model.ExtractedCitation{
		ID:      "cite-1",
		URL:     "https://www.nature.com/articles/123",
		Text:    "See https://www.nature.com/articles/123",
		Section: "content",
		Type:    model.CitationTypeURL,
	}
	result := v.VerifySingleCitation(context.Background(), c, model.SegmentB2B)

	if got := model.MeanScore(result.Verification); got != result.OverallScore {
		t.Errorf("overallScore %f is not the mean of criteria %f", result.OverallScore, got)
	}
	if result.Status != model.StatusForScore(result.OverallScore) {
		t.Errorf("Status %s inconsistent with score %f", result.Status, result.OverallScore)
	}
}

func TestVerifyCitations_SortedDescending(t *testing.T) {
	gw := accessibleGateway()
	v := newTestVerifier(gw, testStore(), nil)

	content := model.NewTextContent(
		"Strong: https://www.nature.com/articles/123 and weak: https://random-blog.example.net/post")
	report := v.VerifyCitations(context.Background(), content, model.SegmentB2B)

	if report.CitationCount != 2 {
		t.Fatalf("Expected 2 citations, got %d", report.CitationCount)
	}
	if report.Citations[0].OverallScore < report.Citations[1].OverallScore {
		t.Error("Expected citations sorted descending by score")
	}
}

func TestFallbackResult(t *testing.T) {
	result := fallbackResult(model.ExtractedCitation{ID: "cite-1"}, time.Now())

	if result.Status != model.StatusUnverified {
		t.Errorf("Expected unverified status, got %s", result.Status)
	}
	if result.OverallScore != 5 {
		t.Errorf("Expected overall score 5, got %f", result.OverallScore)
	}
	for name, score := range result.Verification {
		if score != 5 {
			t.Errorf("Expected criterion %s at 5, got %f", name, score)
		}
	}
	if len(result.Suggestions) == 0 {
		t.Error("Expected a manual-check suggestion")
	}
}

func TestAuthorityCriterion_Bonuses(t *testing.T) {
	tests := []struct {
		da   model.DomainAuthority
		want float64
	}{
		{model.DomainAuthority{AuthorityScore: 50}, 5},
		{model.DomainAuthority{AuthorityScore: 90, IsGovernment: true}, 10}, // capped
		{model.DomainAuthority{AuthorityScore: 60, IsEducational: true}, 7.5},
		{model.DomainAuthority{AuthorityScore: 70, IsNews: true}, 8},
	}

	for _, tt := range tests {
		if got := authorityCriterion(&tt.da); got != tt.want {
			t.Errorf("authorityCriterion(%+v) = %f, want %f", tt.da, got, tt.want)
		}
	}
}

func TestResolveDomainAuthority_FallbackChain(t *testing.T) {
	// Moz errors, Ahrefs succeeds
	gw := accessibleGateway()
	gw.mozErr = errors.New("moz unavailable")
	gw.ahrefs = &model.DomainAuthority{Domain: "example.com", AuthorityScore: 77, Source: model.SourceAhrefs}

	v := newTestVerifier(gw, testStore(), nil)
	da := v.resolveDomainAuthority(context.Background(), "example.com")
	if da.Source != model.SourceAhrefs {
		t.Errorf("Expected ahrefs fallback, got %s", da.Source)
	}

	// Both unavailable: heuristic terminates the chain
	gw = accessibleGateway()
	gw.mozErr = errors.New("moz unavailable")
	gw.ahrefsErr = errors.New("ahrefs unavailable")

	v = newTestVerifier(gw, testStore(), nil)
	da = v.resolveDomainAuthority(context.Background(), "cdc.gov")
	if da.Source != model.SourceHeuristic {
		t.Errorf("Expected heuristic terminal fallback, got %s", da.Source)
	}
	if !da.IsGovernment {
		t.Error("Expected cdc.gov flagged as government")
	}
}

func TestHeuristicAuthority_TLDLadder(t *testing.T) {
	tests := []struct {
		domain string
		want   float64
	}{
		{"nih.gov", 90},
		{"unknown.gov", 90},
		{"mit.edu", 90}, // known institution outranks the .edu default
		{"smallcollege.edu", 70},
		{"bbc.co.uk", 70},
		{"charity.org", 60},
		{"company.com", 50},
		{"mystery.xyz", 40},
	}

	for _, tt := range tests {
		if got := heuristicAuthority(tt.domain).AuthorityScore; got != tt.want {
			t.Errorf("heuristicAuthority(%q) = %f, want %f", tt.domain, got, tt.want)
		}
	}
}

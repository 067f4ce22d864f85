package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/citelens/citelens/internal/model"
)

// ValidateURL probes a URL for reachability. A malformed URL returns
// immediately with IsValid=false and no network call. 4xx responses are
// "valid but possibly inaccessible", not errors. Only a successful HTML
// response triggers a best-effort title extraction.
func (g *Gateway) ValidateURL(ctx context.Context, rawURL string) model.URLValidation {
	result := model.URLValidation{URL: rawURL}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		result.Errors = append(result.Errors, "malformed URL")
		return result
	}

	result.IsValid = true
	result.IsSecure = parsed.Scheme == "https"

	if err := g.limiter.Wait(ctx, rawURL); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("rate limit wait: %v", err))
		return result
	}

	start := time.Now()
	resp, err := g.probeWithRetry(ctx, rawURL)
	result.ResponseTime = time.Since(start)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("probe failed: %v", err))
		return result
	}

	result.StatusCode = resp.statusCode
	result.ContentType = resp.contentType
	result.IsAccessible = resp.statusCode < 400

	if result.IsAccessible && strings.Contains(resp.contentType, "text/html") {
		// Best-effort: a failed title fetch never invalidates the result
		if title, err := g.fetchTitle(ctx, rawURL); err == nil && title != "" {
			result.Title = title
		} else if err != nil {
			g.logger.Debug("title extraction failed", zap.String("url", rawURL), zap.Error(err))
		}
	}

	return result
}

// probeResult is the lightweight outcome of one existence probe
type probeResult struct {
	statusCode  int
	contentType string
}

// probeWithRetry issues a HEAD request, falling back to GET when the server
// rejects HEAD, and retries transient failures with the configured delay.
func (g *Gateway) probeWithRetry(ctx context.Context, rawURL string) (*probeResult, error) {
	attempts := g.retryAttempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := g.probe(ctx, rawURL)
		if err == nil && !isRetryableStatus(result.statusCode) {
			return result, nil
		}
		if err != nil {
			lastErr = err
			if !isRetryableNetworkError(err) {
				return nil, err
			}
		} else {
			lastErr = fmt.Errorf("status %d", result.statusCode)
		}
		if attempt < attempts-1 {
			sleepFunc(g.cfg.RetryDelay)
		}
	}
	return nil, lastErr
}

func (g *Gateway) probe(ctx context.Context, rawURL string) (*probeResult, error) {
	resp, err := g.doProbe(ctx, http.MethodHead, rawURL)
	if err != nil {
		return nil, err
	}

	// Some servers reject HEAD outright; retry those once with GET
	if resp.statusCode == http.StatusMethodNotAllowed {
		return g.doProbe(ctx, http.MethodGet, rawURL)
	}
	return resp, nil
}

func (g *Gateway) doProbe(ctx context.Context, method, rawURL string) (*probeResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.probeClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return &probeResult{
		statusCode:  resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// fetchTitle fetches the page body and extracts its <title>, honoring
// robots.txt for the full GET.
func (g *Gateway) fetchTitle(ctx context.Context, rawURL string) (string, error) {
	if !g.robots.IsAllowed(ctx, rawURL) {
		return "", fmt.Errorf("disallowed by robots.txt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := g.fetchClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	maxBytes := g.cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	body := io.LimitReader(resp.Body, maxBytes)

	doc, err := html.Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	return findTitle(doc), nil
}

// findTitle walks the parse tree for the first <title> text node
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}

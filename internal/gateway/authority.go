package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/model"
)

// majorNewsOutlets flags hostnames treated as news organizations
var majorNewsOutlets = []string{
	"nytimes.com", "washingtonpost.com", "wsj.com", "bbc.co.uk", "bbc.com",
	"reuters.com", "apnews.com", "theguardian.com", "economist.com",
	"bloomberg.com", "ft.com", "npr.org",
}

// DomainFlags classifies a hostname into the categorical domain flags used
// by the authority model
func DomainFlags(domain string) (isGovernment, isEducational, isNonProfit, isNews bool) {
	host := strings.ToLower(domain)

	isGovernment = strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov.")
	isEducational = strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") || strings.Contains(host, ".edu.")
	isNonProfit = strings.HasSuffix(host, ".org")
	for _, outlet := range majorNewsOutlets {
		if host == outlet || strings.HasSuffix(host, "."+outlet) {
			isNews = true
			break
		}
	}
	return
}

// mozResponse is the url_metrics payload shape
type mozResponse struct {
	Results []struct {
		DomainAuthority         float64 `json:"domain_authority"`
		SpamScore               float64 `json:"spam_score"`
		PagesToRootDomain       int64   `json:"pages_to_root_domain"`
		RootDomainsToRootDomain int64   `json:"root_domains_to_root_domain"`
	} `json:"results"`
}

// MozAuthority fetches domain authority from the primary provider. Missing
// credentials short-circuit to (nil, nil): "unavailable", not an error.
func (g *Gateway) MozAuthority(ctx context.Context, domain string) (*model.DomainAuthority, error) {
	if g.moz.AccessID == "" || g.moz.SecretKey == "" {
		return nil, nil
	}

	body, err := json.Marshal(map[string][]string{"targets": {domain}})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(g.moz.BaseURL, "/") + "/url_metrics"
	payload, err := g.providerCall(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(g.moz.AccessID, g.moz.SecretKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		g.logger.Warn("moz lookup failed", zap.String("domain", domain), zap.Error(err))
		return nil, err
	}

	var resp mozResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		g.logger.Warn("moz response parse failed", zap.String("domain", domain), zap.Error(err))
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	r := resp.Results[0]
	da := &model.DomainAuthority{
		Domain:           domain,
		AuthorityScore:   r.DomainAuthority,
		TrustScore:       r.DomainAuthority,
		SpamScore:        r.SpamScore,
		Backlinks:        r.PagesToRootDomain,
		ReferringDomains: r.RootDomainsToRootDomain,
		Source:           model.SourceMoz,
	}
	da.IsGovernment, da.IsEducational, da.IsNonProfit, da.IsNews = DomainFlags(domain)
	return da, nil
}

// ahrefsResponse is the domain-rating payload shape
type ahrefsResponse struct {
	DomainRating     float64 `json:"domain_rating"`
	Backlinks        int64   `json:"backlinks"`
	ReferringDomains int64   `json:"referring_domains"`
}

// AhrefsAuthority fetches domain authority from the fallback provider.
// Missing credentials short-circuit to (nil, nil).
func (g *Gateway) AhrefsAuthority(ctx context.Context, domain string) (*model.DomainAuthority, error) {
	if g.ahrefs.APIKey == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/domain-rating?target=%s",
		strings.TrimSuffix(g.ahrefs.BaseURL, "/"), url.QueryEscape(domain))

	payload, err := g.providerCall(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+g.ahrefs.APIKey)
		return req, nil
	})
	if err != nil {
		g.logger.Warn("ahrefs lookup failed", zap.String("domain", domain), zap.Error(err))
		return nil, err
	}

	var resp ahrefsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		g.logger.Warn("ahrefs response parse failed", zap.String("domain", domain), zap.Error(err))
		return nil, fmt.Errorf("parse response: %w", err)
	}

	da := &model.DomainAuthority{
		Domain:           domain,
		AuthorityScore:   resp.DomainRating,
		TrustScore:       resp.DomainRating,
		Backlinks:        resp.Backlinks,
		ReferringDomains: resp.ReferringDomains,
		Source:           model.SourceAhrefs,
	}
	da.IsGovernment, da.IsEducational, da.IsNonProfit, da.IsNews = DomainFlags(domain)
	return da, nil
}

// providerCall executes a provider request with the configured retry policy
// and returns the raw response body.
func (g *Gateway) providerCall(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	attempts := g.retryAttempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", g.cfg.UserAgent)

		resp, err := g.probeClient.Do(req)
		if err != nil {
			lastErr = err
			if !isRetryableNetworkError(err) {
				return nil, err
			}
		} else {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("read response: %w", readErr)
			}
			if resp.StatusCode == http.StatusOK {
				return body, nil
			}
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			if !isRetryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
		}
		if attempt < attempts-1 {
			sleepFunc(g.cfg.RetryDelay)
		}
	}
	return nil, lastErr
}

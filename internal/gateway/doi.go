package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/model"
)

// doiHandleResponse is the registry payload for one handle lookup
type doiHandleResponse struct {
	ResponseCode int    `json:"responseCode"`
	Handle       string `json:"handle"`
	Values       []struct {
		Type string `json:"type"`
		Data struct {
			Format string          `json:"format"`
			Value  json.RawMessage `json:"value"`
		} `json:"data"`
	} `json:"values"`
}

// VerifyDOI queries the DOI resolution registry. Any failure yields an
// invalid result, never an error. Raw registry responses are memoized with
// a short TTL so repeated citations of one DOI cost a single lookup.
func (g *Gateway) VerifyDOI(ctx context.Context, doi string) model.DOIVerification {
	doi = strings.TrimSpace(doi)
	result := model.DOIVerification{DOI: doi}
	if doi == "" {
		return result
	}

	if cached, found := g.doiMemo.Get(doi); found {
		if v, ok := cached.(model.DOIVerification); ok {
			return v
		}
	}

	endpoint := fmt.Sprintf("%s/api/handles/%s",
		strings.TrimSuffix(g.doi.BaseURL, "/"), url.PathEscape(doi))

	payload, err := g.providerCall(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		g.logger.Debug("doi lookup failed", zap.String("doi", doi), zap.Error(err))
		return result
	}

	var resp doiHandleResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		g.logger.Debug("doi response parse failed", zap.String("doi", doi), zap.Error(err))
		return result
	}

	// responseCode 1 means the handle resolved
	if resp.ResponseCode == 1 {
		result.Valid = true
		result.Metadata = map[string]string{"handle": resp.Handle}
		for _, v := range resp.Values {
			if v.Type == "URL" {
				var target string
				if json.Unmarshal(v.Data.Value, &target) == nil {
					result.Metadata["url"] = target
				}
			}
		}
	}

	g.doiMemo.Set(doi, result, gocache.DefaultExpiration)
	return result
}

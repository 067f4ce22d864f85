// Package gateway isolates every fallible network call the verification
// pipeline makes: URL reachability probes, domain-authority providers, and
// DOI registry lookups. All operations are resilient: provider or network
// failures degrade to "unavailable" values, never errors the caller must
// handle beyond a nil check.
package gateway

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/model"
	"github.com/citelens/citelens/internal/util"
	"github.com/citelens/citelens/internal/worker"
)

// sleepFunc is the sleep used between retries (injectable for tests)
var sleepFunc = time.Sleep

// Gateway performs all external authority lookups
type Gateway struct {
	probeClient *http.Client
	fetchClient *http.Client
	limiter     *worker.HostLimiter
	robots      *util.RobotsChecker
	doiMemo     *gocache.Cache
	logger      *zap.Logger

	cfg model.HTTPConfig

	moz    model.MozConfig
	ahrefs model.AhrefsConfig
	doi    model.DOIConfig
}

// New creates a Gateway from the pipeline configuration
func New(cfg *model.Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	proxyFunc := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	probeClient := &http.Client{
		Timeout: cfg.HTTP.Timeout,
		Transport: &http.Transport{
			Proxy: proxyFunc,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	fetchClient := &http.Client{
		Timeout: cfg.HTTP.Timeout,
		Transport: &http.Transport{
			Proxy: proxyFunc,
		},
	}

	memoTTL := cfg.Providers.DOI.MemoTTL
	if memoTTL <= 0 {
		memoTTL = 30 * time.Minute
	}

	ratePerHost := cfg.HTTP.RatePerHost
	if ratePerHost <= 0 {
		ratePerHost = 2
	}

	return &Gateway{
		probeClient: probeClient,
		fetchClient: fetchClient,
		limiter:     worker.NewHostLimiter(ratePerHost, cfg.HTTP.RateBurst),
		robots:      util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		doiMemo:     gocache.New(memoTTL, 2*memoTTL),
		logger:      logger,
		cfg:         cfg.HTTP,
		moz:         cfg.Providers.Moz,
		ahrefs:      cfg.Providers.Ahrefs,
		doi:         cfg.Providers.DOI,
	}
}

// retryAttempts returns the configured attempt count, at least 1
func (g *Gateway) retryAttempts() int {
	if g.cfg.RetryAttempts <= 0 {
		return 1
	}
	return g.cfg.RetryAttempts
}

// isRetryableStatus reports transient HTTP statuses worth another attempt
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}

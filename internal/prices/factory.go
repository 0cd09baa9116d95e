package prices

import (
	"time"

	"github.com/bobmcallan/papertrade/internal/cache"
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/config"
	"github.com/bobmcallan/papertrade/internal/metrics"
)

// NewFromConfig builds the lookup chain: provider, then circuit breaker,
// then quote cache when cache_ttl is set.
func NewFromConfig(cfg *config.PricesConfig, logger *common.Logger, m *metrics.Metrics) *Service {
	var src Source
	switch cfg.Provider {
	case "finnhub":
		src = NewFinnhubSource(cfg.BaseURL, cfg.APIKey, cfg.GetTimeout())
		src = NewBreakerSource(src, cfg.Breaker.MaxFailures, cfg.Breaker.GetOpenFor())
	default:
		src = NewSimulatedSource(time.Now().UnixNano())
	}

	if ttl := cfg.GetCacheTTL(); ttl > 0 {
		src = NewCachedSource(src, cache.New(ttl, 1000))
	}

	logger.Info().
		Str("provider", providerName(cfg.Provider)).
		Str("cache_ttl", cfg.GetCacheTTL().String()).
		Msg("Price source configured")

	return NewService(src, logger, m)
}

func providerName(p string) string {
	if p == "finnhub" {
		return p
	}
	return "simulated"
}

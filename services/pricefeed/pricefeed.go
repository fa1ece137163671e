package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coinacademy/api/model"
	"github.com/coinacademy/api/utils/cache"
)

const (
	cacheKey = "pricefeed:rates"
	cacheTTL = 10 * time.Minute

	defaultFeedURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,tether,usd-coin&vs_currencies=usd"
)

// coin id mapping used by the upstream feed
var feedIDs = map[string]string{
	"bitcoin":  model.CoinBTC,
	"tether":   model.CoinUSDT,
	"usd-coin": model.CoinUSDC,
}

// Rates maps coin symbols to their USD price
type Rates map[string]float64

// Poller fetches coin/USD rates and caches them in Redis. Rates are for
// checkout display only; payment amounts are fiat-denominated and never
// depend on the feed.
type Poller struct {
	httpClient *http.Client
	redisCache *cache.RedisCache
	feedURL    string
}

// NewPoller creates a price feed poller. feedURL may be empty to use
// the default upstream.
func NewPoller(redisCache *cache.RedisCache, feedURL string) *Poller {
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	return &Poller{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		redisCache: redisCache,
		feedURL:    feedURL,
	}
}

// Refresh fetches fresh rates from the upstream feed and caches them
func (p *Poller) Refresh(ctx context.Context) (Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	// Upstream shape: {"bitcoin": {"usd": 12345.67}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode price feed response: %w", err)
	}

	rates := Rates{}
	for feedID, symbol := range feedIDs {
		if usd, ok := payload[feedID]["usd"]; ok {
			rates[symbol] = usd
		}
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("price feed response contained no known coins")
	}

	if p.redisCache != nil {
		if err := p.redisCache.SetJSON(ctx, cacheKey, rates, cacheTTL); err != nil {
			return rates, fmt.Errorf("failed to cache rates: %w", err)
		}
	}

	return rates, nil
}

// GetRates returns the cached rates, or refreshes when the cache is
// cold
func (p *Poller) GetRates(ctx context.Context) (Rates, error) {
	if p.redisCache != nil {
		var rates Rates
		if err := p.redisCache.GetJSON(ctx, cacheKey, &rates); err == nil && len(rates) > 0 {
			return rates, nil
		}
	}
	return p.Refresh(ctx)
}

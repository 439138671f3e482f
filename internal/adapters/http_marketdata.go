package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// HTTPMarketDataConfig configures the live top-of-book client.
type HTTPMarketDataConfig struct {
	BaseURL            string `json:"base_url" yaml:"base_url"`
	TimeoutMs          int    `json:"timeout_ms" yaml:"timeout_ms"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// HTTPMarketData fetches top-of-book snapshots and feed latency from a
// market-data service over HTTP. Calls are rate limited and tracked by a
// provider health monitor. Nothing is cached: the admission gate needs
// call-time data, staleness defeats the check.
type HTTPMarketData struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	health  *ProviderHealth
}

func NewHTTPMarketData(cfg HTTPMarketDataConfig) *HTTPMarketData {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 300
	}
	return &HTTPMarketData{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1),
		health:  NewProviderHealth("marketdata_http"),
	}
}

// Health exposes the provider health monitor.
func (h *HTTPMarketData) Health() *ProviderHealth { return h.health }

func (h *HTTPMarketData) GetTopOfBook(ctx context.Context, symbol string) (*TopOfBook, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v1/book?symbol=%s", h.baseURL, url.QueryEscape(symbol))
	start := time.Now()
	var book TopOfBook
	if err := h.getJSON(ctx, u, &book); err != nil {
		h.health.RecordFailure(err)
		return nil, fmt.Errorf("get top of book %s: %w", symbol, err)
	}
	if err := ValidateTopOfBook(&book); err != nil {
		h.health.RecordFailure(err)
		return nil, fmt.Errorf("invalid book for %s: %w", symbol, err)
	}
	h.health.RecordSuccess(time.Since(start))
	return &book, nil
}

func (h *HTTPMarketData) GetRecentLatency(ctx context.Context, channel string) (time.Duration, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	u := fmt.Sprintf("%s/v1/latency?channel=%s", h.baseURL, url.QueryEscape(channel))
	var resp struct {
		LatencyMs int64 `json:"latency_ms"`
	}
	start := time.Now()
	if err := h.getJSON(ctx, u, &resp); err != nil {
		h.health.RecordFailure(err)
		return 0, fmt.Errorf("get latency for %s: %w", channel, err)
	}
	if resp.LatencyMs < 0 {
		err := fmt.Errorf("negative latency %dms", resp.LatencyMs)
		h.health.RecordFailure(err)
		return 0, err
	}
	h.health.RecordSuccess(time.Since(start))
	return time.Duration(resp.LatencyMs) * time.Millisecond, nil
}

func (h *HTTPMarketData) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

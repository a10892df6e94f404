package provider

import (
	"context"
	"fmt"
	"time"

	svcmetrics "QuantPull/internal/service/metrics"
	"QuantPull/internal/service/ratelimit"
	xhttp "QuantPull/pkg/http"
)

// RESTBase is the shared foundation for provider REST clients. It owns the
// HTTP client, paces calls through the shared rate limiter and records
// per-endpoint latency and error metrics.
type RESTBase struct {
	name    string
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	perMin  float64
}

// NewRESTBase builds a provider base. ratePerMinute <= 0 disables pacing.
func NewRESTBase(name, baseURL string, timeout time.Duration, ratePerMinute int, limiter *ratelimit.Limiter) *RESTBase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	svcmetrics.Register()
	return &RESTBase{
		name:    name,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
		perMin:  float64(ratePerMinute),
	}
}

// Name returns the provider name used in logs and metrics.
func (b *RESTBase) Name() string { return b.name }

// GetJSON fetches path with query params and decodes the JSON response into
// dest. endpoint is the low-cardinality metrics label.
func (b *RESTBase) GetJSON(ctx context.Context, endpoint, path string, params map[string]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("%s client not initialized", b.name)
	}

	if b.limiter != nil && b.perMin > 0 {
		if !b.limiter.Allow(b.name, b.perMin, b.perMin/60) {
			svcmetrics.ProviderThrottled.WithLabelValues(b.name).Inc()
			if err := b.limiter.Wait(ctx, b.name, b.perMin, b.perMin/60); err != nil {
				return fmt.Errorf("rate wait %s: %w", b.name, err)
			}
		}
	}

	start := time.Now()
	err := b.client.Get(ctx, b.baseURL+path, params, dest)
	svcmetrics.ProviderLatency.WithLabelValues(b.name, endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		svcmetrics.ProviderErrors.WithLabelValues(b.name, endpoint).Inc()
		return fmt.Errorf("get %s %s: %w", b.name, endpoint, err)
	}
	return nil
}

// GetJSONWithRetry retries transient failures with linear backoff.
func (b *RESTBase) GetJSONWithRetry(ctx context.Context, endpoint, path string, params map[string]string, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.GetJSON(ctx, endpoint, path, params, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.GetJSON(ctx, endpoint, path, params, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(time.Duration(i) * 250 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

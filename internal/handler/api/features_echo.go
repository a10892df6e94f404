package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	models "QuantPull/internal/domain/models"
	domrepo "QuantPull/internal/domain/repository"
	icache "QuantPull/internal/service/cache"
	"QuantPull/internal/service/metrics"
	"QuantPull/internal/service/ratelimit"
	"QuantPull/internal/usecase"
	pkgcache "QuantPull/pkg/cache"
	xhttp "QuantPull/pkg/http"
	xlogger "QuantPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FeaturesHandler serves the query API over stored feature tables, economic
// indicators and daily sentiment, plus the collect trigger.
type FeaturesHandler struct {
	logger     *xlogger.Logger
	features   *usecase.FeaturesUseCase
	sentiment  *usecase.SentimentUseCase
	indicators *usecase.IndicatorsUseCase
	collector  *usecase.Collector

	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
	burst    float64
	refill   float64 // tokens per second
	health   func(ctx context.Context) error
}

func NewFeaturesHandler(
	logger *xlogger.Logger,
	features *usecase.FeaturesUseCase,
	sentiment *usecase.SentimentUseCase,
	indicators *usecase.IndicatorsUseCase,
	collector *usecase.Collector,
) *FeaturesHandler {
	metrics.Register()
	return &FeaturesHandler{
		logger:     logger,
		features:   features,
		sentiment:  sentiment,
		indicators: indicators,
		collector:  collector,
		rl:         ratelimit.New(),
	}
}

// SetCache installs a response cache with the TTL rendered payloads live for.
func (h *FeaturesHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	} else {
		h.cacheTTL = 30 * time.Second
	}
}

// SetRateLimit throttles clients per IP. Burst covers ten seconds of the
// steady rate so dashboards loading several panels at once pass.
func (h *FeaturesHandler) SetRateLimit(perMinute float64) {
	if perMinute <= 0 {
		return
	}
	h.refill = perMinute / 60
	h.burst = perMinute / 6
	if h.burst < 1 {
		h.burst = 1
	}
}

// SetHealthProbe wires the storage ping used by GET /health.
func (h *FeaturesHandler) SetHealthProbe(fn func(ctx context.Context) error) { h.health = fn }

func (h *FeaturesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/features", h.Features)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/indicators", h.Indicators)
	g.POST("/collect", h.Collect)
}

func (h *FeaturesHandler) Health(c echo.Context) error {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *FeaturesHandler) Features(c echo.Context) error {
	start := time.Now()
	endpoint := "features"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, perr := parseRange(req.From, req.To)
	if perr != nil {
		return xhttp.BadRequestResponse(c, perr.Error())
	}
	if !h.allow(c, endpoint) {
		return xhttp.TooManyRequestsResponse(c, "rate limited")
	}

	key := pkgcache.GenerateKeyWithParams(endpoint, req.Symbol, req.Interval, req.From, req.To, req.Limit)
	if b, ok := h.cached(endpoint, key); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	res, err := h.features.GetFeatures(c.Request().Context(), usecase.GetFeaturesParams{
		Symbol:   req.Symbol,
		Interval: domrepo.NormalizeInterval(req.Interval),
		From:     from,
		To:       to,
		Limit:    req.Limit,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("features usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return h.respond(c, endpoint, key, res)
}

func (h *FeaturesHandler) Sentiment(c echo.Context) error {
	start := time.Now()
	endpoint := "sentiment"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, perr := parseRange(req.From, req.To)
	if perr != nil {
		return xhttp.BadRequestResponse(c, perr.Error())
	}
	if !h.allow(c, endpoint) {
		return xhttp.TooManyRequestsResponse(c, "rate limited")
	}

	key := pkgcache.GenerateKeyWithParams(endpoint, req.Symbol, req.From, req.To)
	if b, ok := h.cached(endpoint, key); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	res, err := h.sentiment.GetSentiment(c.Request().Context(), usecase.GetSentimentParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("sentiment usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return h.respond(c, endpoint, key, res)
}

func (h *FeaturesHandler) Indicators(c echo.Context) error {
	start := time.Now()
	endpoint := "indicators"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return xhttp.TooManyRequestsResponse(c, "rate limited")
	}

	key := pkgcache.GenerateKeyWithParams(endpoint, req.Name, req.Limit)
	if b, ok := h.cached(endpoint, key); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	res, err := h.indicators.GetIndicators(c.Request().Context(), req.Name, req.Limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return h.respond(c, endpoint, key, res)
}

// Collect accepts a collection request and queues the jobs it expands to.
// Execution is asynchronous; 202 means accepted, not done.
func (h *FeaturesHandler) Collect(c echo.Context) error {
	start := time.Now()
	endpoint := "collect"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.CollectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return xhttp.TooManyRequestsResponse(c, "rate limited")
	}

	n, err := h.collector.Enqueue(c.Request().Context(), req)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("collect enqueue error",
			xlogger.String("type", req.Type),
			xlogger.Int("queued", n),
			xlogger.Error(err),
		)
		if n == 0 {
			return xhttp.AppErrorResponse(c, err)
		}
		// partial acceptance still reports what went through
	}
	return xhttp.DataResponse(c, http.StatusAccepted, echo.Map{
		"type": req.Type,
		"jobs": n,
	})
}

// allow checks the per-IP token bucket for one endpoint.
func (h *FeaturesHandler) allow(c echo.Context, endpoint string) bool {
	if h.refill <= 0 {
		return true
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, h.burst, h.refill) {
		return true
	}
	h.logger.Warn("api rate limited",
		xlogger.String("endpoint", endpoint),
		xlogger.String("remote", c.RealIP()),
	)
	return false
}

// cached returns the rendered envelope for key when the cache holds it.
func (h *FeaturesHandler) cached(endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("response cache get error",
			xlogger.String("endpoint", endpoint),
			xlogger.Error(err),
		)
		return nil, false
	}
	if ok {
		metrics.APICacheHits.WithLabelValues(endpoint).Inc()
	}
	return b, ok
}

// respond renders the standard envelope once, caches the bytes and writes
// them, so cached and fresh responses are byte-identical.
func (h *FeaturesHandler) respond(c echo.Context, endpoint, key string, data interface{}) error {
	b, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("response marshal error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(key, b, h.cacheTTL); err != nil {
			h.logger.Warn("response cache set error",
				xlogger.String("endpoint", endpoint),
				xlogger.Error(err),
			)
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}

// parseRange parses optional from/to query strings. Zero times mean the
// usecase picks its defaults.
func parseRange(fromS, toS string) (time.Time, time.Time, error) {
	var from, to time.Time
	if fromS != "" {
		t, ok := xhttp.ParseTime(fromS)
		if !ok {
			return from, to, xhttp.BadRequestErrorf("unparseable from %q", fromS)
		}
		from = t
	}
	if toS != "" {
		t, ok := xhttp.ParseTime(toS)
		if !ok {
			return from, to, xhttp.BadRequestErrorf("unparseable to %q", toS)
		}
		to = t
	}
	return from, to, nil
}

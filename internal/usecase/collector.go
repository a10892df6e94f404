package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	pkgcache "QuantPull/pkg/cache"
	applogger "QuantPull/pkg/logger"
	"QuantPull/pkg/queue"
)

// Collector turns collection requests into queued jobs and executes them
// when the queue dispatches back. A Redis lock per unit of work keeps two
// workers off the same (symbol, interval) or series at once.
type Collector struct {
	market *MarketPipeline
	econ   *EconPipeline
	news   *NewsPipeline
	queue  drepo.JobQueue
	locks  pkgcache.Service
	log    *applogger.Logger

	symbols   []string
	intervals []drepo.Interval
	series    map[string]string // series id -> display name
	lockTTL   time.Duration
}

func NewCollector(
	market *MarketPipeline,
	econ *EconPipeline,
	news *NewsPipeline,
	jobQueue drepo.JobQueue,
	locks pkgcache.Service,
	symbols []string,
	intervals []string,
	series map[string]string,
	log *applogger.Logger,
) *Collector {
	ivs := make([]drepo.Interval, 0, len(intervals))
	for _, iv := range intervals {
		ivs = append(ivs, drepo.NormalizeInterval(iv))
	}
	return &Collector{
		market:    market,
		econ:      econ,
		news:      news,
		queue:     jobQueue,
		locks:     locks,
		log:       log,
		symbols:   symbols,
		intervals: ivs,
		series:    series,
		// longer than any single collection should take; expiry unsticks
		// the lock if a worker dies mid-run
		lockTTL: 10 * time.Minute,
	}
}

// Enqueue queues the jobs a collect request asks for and returns how many
// were accepted. Empty symbol/interval lists fall back to the configured
// collection set.
func (c *Collector) Enqueue(ctx context.Context, req *models.CollectRequest) (int, error) {
	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = c.symbols
	}
	intervals := c.intervals
	if len(req.Intervals) > 0 {
		intervals = make([]drepo.Interval, 0, len(req.Intervals))
		for _, iv := range req.Intervals {
			intervals = append(intervals, drepo.NormalizeInterval(iv))
		}
	}

	var errs []error
	n := 0
	enqueue := func(jobType string, job models.CollectJob) {
		if err := c.queue.Enqueue(ctx, jobType, job); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s: %w", jobType, err))
			return
		}
		n++
	}

	if req.Type == models.JobMarket || req.Type == "all" {
		for _, s := range symbols {
			for _, iv := range intervals {
				enqueue(models.JobMarket, models.CollectJob{
					Type:     models.JobMarket,
					Symbol:   s,
					Interval: string(iv),
				})
			}
		}
	}
	if req.Type == models.JobEcon || req.Type == "all" {
		for id, name := range c.series {
			enqueue(models.JobEcon, models.CollectJob{
				Type:     models.JobEcon,
				SeriesID: id,
				Series:   name,
			})
		}
	}
	if req.Type == models.JobNews || req.Type == "all" {
		for _, s := range symbols {
			enqueue(models.JobNews, models.CollectJob{
				Type:   models.JobNews,
				Symbol: s,
			})
		}
	}

	return n, errors.Join(errs...)
}

// EnqueueAll queues the full configured workload.
func (c *Collector) EnqueueAll(ctx context.Context) (int, error) {
	return c.Enqueue(ctx, &models.CollectRequest{Type: "all"})
}

// RunMarket executes one market collection under its lock.
func (c *Collector) RunMarket(ctx context.Context, symbol string, interval drepo.Interval) error {
	if symbol == "" {
		return fmt.Errorf("market job without symbol")
	}
	if !drepo.IsValidInterval(interval) {
		return fmt.Errorf("market job with invalid interval %q", interval)
	}
	key := pkgcache.GenerateKeyWithParams("collect", "market", symbol, string(interval))
	return c.withLock(ctx, key, func(ctx context.Context) error {
		return c.market.Collect(ctx, symbol, interval)
	})
}

// RunEcon executes one series collection under its lock.
func (c *Collector) RunEcon(ctx context.Context, seriesID, name string) error {
	if seriesID == "" {
		return fmt.Errorf("econ job without series id")
	}
	if name == "" {
		name = seriesID
	}
	key := pkgcache.GenerateKeyWithParams("collect", "econ", seriesID)
	return c.withLock(ctx, key, func(ctx context.Context) error {
		return c.econ.Collect(ctx, seriesID, name)
	})
}

// RunNews executes one news collection under its lock.
func (c *Collector) RunNews(ctx context.Context, symbol string) error {
	if symbol == "" {
		return fmt.Errorf("news job without symbol")
	}
	key := pkgcache.GenerateKeyWithParams("collect", "news", symbol)
	return c.withLock(ctx, key, func(ctx context.Context) error {
		return c.news.Collect(ctx, symbol)
	})
}

// withLock runs fn under a best-effort Redis lock. A lock error degrades to
// running anyway; a held lock skips the run.
func (c *Collector) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	ok, err := c.locks.TryLock(ctx, key, c.lockTTL)
	switch {
	case err != nil:
		c.log.Warn("collection lock unavailable, proceeding",
			applogger.String("key", key),
			applogger.Error(err),
		)
	case !ok:
		c.log.Info("collection already in progress, skipped",
			applogger.String("key", key),
		)
		return nil
	default:
		defer func() { _ = c.locks.Unlock(context.Background(), key) }()
	}
	return fn(ctx)
}

// MarketJob dispatches queued market collections onto the collector.
type MarketJob struct{ C *Collector }

func (j MarketJob) Name() string { return "market collection" }
func (j MarketJob) Type() string { return models.JobMarket }

func (j MarketJob) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[models.CollectJob](payload)
	if err != nil {
		return fmt.Errorf("decode market job: %w", err)
	}
	return j.C.RunMarket(ctx, job.Symbol, drepo.Interval(job.Interval))
}

// EconJob dispatches queued series collections onto the collector.
type EconJob struct{ C *Collector }

func (j EconJob) Name() string { return "econ collection" }
func (j EconJob) Type() string { return models.JobEcon }

func (j EconJob) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[models.CollectJob](payload)
	if err != nil {
		return fmt.Errorf("decode econ job: %w", err)
	}
	return j.C.RunEcon(ctx, job.SeriesID, job.Series)
}

// NewsJob dispatches queued news collections onto the collector.
type NewsJob struct{ C *Collector }

func (j NewsJob) Name() string { return "news collection" }
func (j NewsJob) Type() string { return models.JobNews }

func (j NewsJob) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[models.CollectJob](payload)
	if err != nil {
		return fmt.Errorf("decode news job: %w", err)
	}
	return j.C.RunNews(ctx, job.Symbol)
}

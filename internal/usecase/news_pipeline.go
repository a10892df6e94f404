package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	domsvc "QuantPull/internal/domain/service"
	"QuantPull/internal/services/sentiment"
	pkgcache "QuantPull/pkg/cache"
	applogger "QuantPull/pkg/logger"
)

// NewsPipeline runs one news collection for a symbol: resolve the relevance
// keywords from the company profile, fetch from every source concurrently,
// filter, aggregate into daily rows and fan the rows out. A failing source
// degrades the collection instead of aborting it.
type NewsPipeline struct {
	sources    []drepo.NewsSource
	profiles   drepo.ProfileSource
	analyzer   domsvc.SentimentAnalyzer
	proc       *TableProcessor
	cache      pkgcache.Service
	metrics    drepo.Metrics
	log        *applogger.Logger
	profileTTL time.Duration
}

func NewNewsPipeline(
	sources []drepo.NewsSource,
	profiles drepo.ProfileSource,
	analyzer domsvc.SentimentAnalyzer,
	proc *TableProcessor,
	cache pkgcache.Service,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *NewsPipeline {
	return &NewsPipeline{
		sources:    sources,
		profiles:   profiles,
		analyzer:   analyzer,
		proc:       proc,
		cache:      cache,
		metrics:    metrics,
		log:        log,
		profileTTL: 24 * time.Hour, // reference data; a day of staleness is fine
	}
}

// Collect fetches, filters and aggregates one symbol's news.
func (p *NewsPipeline) Collect(ctx context.Context, symbol string) error {
	start := time.Now()

	keywords := p.Keywords(ctx, symbol)
	articles := p.fetchAll(ctx, symbol, keywords)

	relevant := make([]*models.Article, 0, len(articles))
	for _, a := range articles {
		ok := p.analyzer.Relevant(a, keywords)
		p.metrics.RecordArticle(a.Source, ok)
		if ok {
			relevant = append(relevant, a)
		}
	}

	rows := p.analyzer.Aggregate(relevant)
	for _, r := range rows {
		p.metrics.RecordSentiment(r.Symbol, r.Confidence)
	}
	if err := p.proc.ProcessSentiment(ctx, rows); err != nil {
		return err
	}

	p.metrics.RecordLatency("collect_news", time.Since(start).Seconds())
	p.log.Info("news collection done",
		applogger.String("symbol", symbol),
		applogger.Int("fetched", len(articles)),
		applogger.Int("relevant", len(relevant)),
		applogger.Int("days", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Keywords resolves the relevance terms for a symbol. The company profile
// is cached; a failed lookup degrades to the symbol alone.
func (p *NewsPipeline) Keywords(ctx context.Context, symbol string) []string {
	key := pkgcache.GenerateKey("profile", symbol)

	var cached models.CompanyProfile
	if err := p.cache.Get(ctx, key, &cached); err == nil && cached.Symbol != "" {
		return sentiment.DeriveKeywords(symbol, &cached)
	}

	profile, err := p.profiles.FetchProfile(ctx, symbol)
	if err != nil {
		p.metrics.RecordError("profile_fetch")
		p.log.Warn("profile fetch failed, keywords degrade to symbol",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return sentiment.DeriveKeywords(symbol, nil)
	}
	if err := p.cache.Set(ctx, key, profile, p.profileTTL); err != nil {
		p.log.Warn("profile cache set failed", applogger.Error(err))
	}
	return sentiment.DeriveKeywords(symbol, profile)
}

// fetchAll fans out to every source and merges what comes back.
func (p *NewsPipeline) fetchAll(ctx context.Context, symbol string, keywords []string) []*models.Article {
	type item struct {
		name     string
		articles []*models.Article
		err      error
	}
	ch := make(chan item, len(p.sources))
	var wg sync.WaitGroup

	for _, src := range p.sources {
		wg.Add(1)
		go func(src drepo.NewsSource) {
			defer wg.Done()
			articles, err := src.FetchArticles(ctx, symbol, keywords)
			ch <- item{src.Name(), articles, err}
		}(src)
	}
	go func() { wg.Wait(); close(ch) }()

	var out []*models.Article
	for it := range ch {
		if it.err != nil {
			p.metrics.RecordError(fmt.Sprintf("news_fetch_%s", it.name))
			p.log.Warn("news source failed",
				applogger.String("source", it.name),
				applogger.String("symbol", symbol),
				applogger.Error(it.err),
			)
			continue
		}
		out = append(out, it.articles...)
	}
	return out
}

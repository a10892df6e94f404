package usecase

import (
	"context"
	"sync"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	domsvc "QuantPull/internal/domain/service"
	mid "QuantPull/internal/middleware"
	applogger "QuantPull/pkg/logger"
	"QuantPull/pkg/util"
)

// KeywordsFunc resolves the relevance keywords for a symbol. The intake
// shares the news pipeline's profile-backed resolver through this.
type KeywordsFunc func(ctx context.Context, symbol string) []string

// ArticleIntake consumes the live headline stream. Accepted articles are
// buffered per (symbol, day); on every flush the affected days are
// re-aggregated in full and upserted, so streaming rows converge to the
// same values a batch collection would produce.
type ArticleIntake struct {
	stream   drepo.ArticleStream
	pipe     *mid.ArticlePipeline
	analyzer domsvc.SentimentAnalyzer
	proc     *TableProcessor
	keywords KeywordsFunc
	metrics  drepo.Metrics
	log      *applogger.Logger

	flushEvery time.Duration
	retention  time.Duration

	mu     sync.Mutex
	buffer map[dayKey][]*models.Article
	dirty  map[dayKey]bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

type dayKey struct {
	symbol string
	day    time.Time
}

func NewArticleIntake(
	stream drepo.ArticleStream,
	analyzer domsvc.SentimentAnalyzer,
	proc *TableProcessor,
	keywords KeywordsFunc,
	metrics drepo.Metrics,
	log *applogger.Logger,
	flushEvery time.Duration,
) *ArticleIntake {
	if flushEvery <= 0 {
		flushEvery = time.Minute
	}
	return &ArticleIntake{
		stream:     stream,
		analyzer:   analyzer,
		proc:       proc,
		keywords:   keywords,
		metrics:    metrics,
		log:        log,
		flushEvery: flushEvery,
		// two days covers the UTC day boundary for every market timezone
		retention: 48 * time.Hour,
		buffer:    make(map[dayKey][]*models.Article),
		dirty:     make(map[dayKey]bool),
		stopCh:    make(chan struct{}),
	}
}

// SetPipeline installs the validation/throttle pipeline in front of the
// intake. Stream articles then pass through it before Process.
func (i *ArticleIntake) SetPipeline(pipe *mid.ArticlePipeline) { i.pipe = pipe }

// IsConnected returns true if the headline stream is connected.
func (i *ArticleIntake) IsConnected() bool {
	return i.stream != nil && i.stream.IsConnected()
}

// Start connects the stream, when one is configured, and launches the
// consume and flush loops. Without a stream the intake still aggregates
// whatever the Kafka articles topic feeds it.
func (i *ArticleIntake) Start(ctx context.Context) error {
	if i.pipe != nil {
		i.pipe.Start(ctx)
	}
	if i.stream != nil {
		if err := i.stream.Connect(ctx); err != nil {
			return err
		}
		if err := i.stream.Subscribe(ctx); err != nil {
			return err
		}
		artCh, errCh := i.stream.Read(ctx)
		go i.consume(ctx, artCh, errCh)
	}
	go i.flushLoop(ctx)
	return nil
}

func (i *ArticleIntake) consume(ctx context.Context, artCh <-chan *models.Article, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-i.stopCh:
			return
		case err := <-errCh:
			if err != nil {
				i.metrics.RecordError("stream")
				if rerr := i.stream.Reconnect(ctx); rerr != nil {
					i.log.Error("newswire reconnect failed", applogger.Error(rerr))
				}
				artCh, errCh = i.stream.Read(ctx)
			}
		case a := <-artCh:
			if a == nil {
				continue
			}
			if i.pipe != nil {
				_ = i.pipe.Process(ctx, a)
			} else {
				_ = i.Process(ctx, a)
			}
		}
	}
}

// Process filters one article by relevance and buffers it for the next
// flush. It implements the pipeline's downstream interface.
func (i *ArticleIntake) Process(ctx context.Context, a *models.Article) error {
	keywords := i.keywords(ctx, a.Symbol)
	ok := i.analyzer.Relevant(a, keywords)
	i.metrics.RecordArticle(a.Source, ok)
	if !ok {
		return nil
	}

	key := dayKey{symbol: a.Symbol, day: util.DateOnly(a.PublishedAt)}

	i.mu.Lock()
	defer i.mu.Unlock()
	if a.URL != "" {
		// feeds replay headlines; the same link counts once per day
		for _, b := range i.buffer[key] {
			if b.URL == a.URL {
				return nil
			}
		}
	}
	i.buffer[key] = append(i.buffer[key], a)
	i.dirty[key] = true
	return nil
}

func (i *ArticleIntake) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(i.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-i.stopCh:
			return
		case <-ticker.C:
			i.flush(ctx)
		}
	}
}

// flush re-aggregates every day that changed since the previous flush and
// upserts the rows. Buffered days past retention are evicted.
func (i *ArticleIntake) flush(ctx context.Context) {
	i.mu.Lock()
	groups := make([][]*models.Article, 0, len(i.dirty))
	for key := range i.dirty {
		group := make([]*models.Article, len(i.buffer[key]))
		copy(group, i.buffer[key])
		groups = append(groups, group)
	}
	i.dirty = make(map[dayKey]bool)

	cutoff := util.DateOnly(time.Now().Add(-i.retention))
	for key := range i.buffer {
		if key.day.Before(cutoff) {
			delete(i.buffer, key)
		}
	}
	i.mu.Unlock()

	if len(groups) == 0 {
		return
	}

	rows := make([]*models.DailySentiment, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, i.analyzer.Aggregate(group)...)
	}
	for _, r := range rows {
		i.metrics.RecordSentiment(r.Symbol, r.Confidence)
	}

	if err := i.proc.ProcessSentiment(ctx, rows); err != nil {
		i.metrics.RecordError("intake_flush")
		i.log.Error("sentiment flush failed",
			applogger.Int("rows", len(rows)),
			applogger.Error(err),
		)
		// leave the days marked for the next flush
		i.mu.Lock()
		for _, group := range groups {
			if len(group) > 0 {
				key := dayKey{symbol: group[0].Symbol, day: util.DateOnly(group[0].PublishedAt)}
				i.dirty[key] = true
			}
		}
		i.mu.Unlock()
		return
	}

	i.log.Debug("sentiment flush done", applogger.Int("rows", len(rows)))
}

// Shutdown drains one final flush, stops the pipeline and closes the stream.
func (i *ArticleIntake) Shutdown(ctx context.Context) error {
	i.stopOnce.Do(func() { close(i.stopCh) })
	i.flush(ctx)
	if i.pipe != nil {
		i.pipe.Stop()
	}
	if i.stream != nil {
		return i.stream.Close()
	}
	return nil
}

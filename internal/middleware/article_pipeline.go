package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"QuantPull/internal/domain/models"
	domrepo "QuantPull/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, a *models.Article) error
}

// ArticlePipeline sits between the newswire stream and the intake. It
// validates, throttles chatty symbols, optionally transforms, and buffers
// when downstream is unavailable.
type ArticlePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Article
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
	// optional normalization hook applied before validation re-check
	transform func(*models.Article) *models.Article
}

type PipelineOption func(*ArticlePipeline)

// WithMaxRPS sets the max accepted articles per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *ArticlePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer size used when downstream fails.
func WithBufferSize(n int) PipelineOption {
	return func(p *ArticlePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a normalization hook applied to accepted articles.
func WithTransform(fn func(*models.Article) *models.Article) PipelineOption {
	return func(p *ArticlePipeline) { p.transform = fn }
}

// NewArticlePipeline creates a new pipeline.
func NewArticlePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ArticlePipeline {
	p := &ArticlePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   5, // headlines are low rate; anything above this is a feed glitch
		bufSize:  1000,
		bufCh:    make(chan *models.Article, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Article, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered articles.
func (p *ArticlePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case a := <-p.bufCh:
				if a == nil {
					continue
				}
				if err := p.proc.Process(ctx, a); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("article_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- a:
					default:
						p.metrics.RecordError("article_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *ArticlePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards an article downstream,
// buffering it for retry when the intake errors.
func (p *ArticlePipeline) Process(ctx context.Context, a *models.Article) error {
	start := time.Now()
	if err := validateArticle(a); err != nil {
		p.metrics.RecordError("article_validate")
		return err
	}
	if p.transform != nil {
		a = p.transform(a)
		if err := validateArticle(a); err != nil {
			p.metrics.RecordError("article_transform_invalid")
			return err
		}
	}
	if !p.allow(a.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("article_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, a); err != nil {
		p.metrics.RecordError("article_process")
		// buffer non-blocking
		select {
		case p.bufCh <- a:
		default:
			p.metrics.RecordError("article_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("article_process", time.Since(start).Seconds())
	return nil
}

func validateArticle(a *models.Article) error {
	if a == nil {
		return fmt.Errorf("article nil")
	}
	if a.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if a.Title == "" && a.Description == "" {
		return fmt.Errorf("article has no text")
	}
	if a.PublishedAt.IsZero() {
		return fmt.Errorf("published_at missing")
	}
	return nil
}

func (p *ArticlePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() {
		p.lastSeen[symbol] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}

package repository

import (
	"context"

	"QuantPull/internal/domain/models"
)

// BarSource fetches raw OHLCV tables from a market-data provider.
type BarSource interface {
	FetchBars(ctx context.Context, symbol string, interval Interval) (*models.RawTable, error)
}

// EconSource fetches raw single-column observation tables for an economic
// series.
type EconSource interface {
	FetchSeries(ctx context.Context, seriesID, name string) (*models.RawTable, error)
}

// NewsSource fetches articles mentioning a symbol. Keywords drive the
// provider-side query; relevance filtering happens downstream.
type NewsSource interface {
	Name() string
	FetchArticles(ctx context.Context, symbol string, keywords []string) ([]*models.Article, error)
}

// ProfileSource resolves company reference data for keyword derivation.
type ProfileSource interface {
	FetchProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
}

// ArticleStream is a live headline feed.
type ArticleStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Article, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher ships computed tables to downstream consumers.
type Publisher interface {
	PublishTable(ctx context.Context, t *models.FeatureTable) error
	PublishSentiment(ctx context.Context, rows []*models.DailySentiment) error
	Close() error
}

// Storage persists computed tables.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreTable(ctx context.Context, t *models.FeatureTable) error
	StoreSentiment(ctx context.Context, rows []*models.DailySentiment) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Exporter writes computed tables to local files.
type Exporter interface {
	ExportTable(ctx context.Context, t *models.FeatureTable) error
	ExportSentiment(ctx context.Context, rows []*models.DailySentiment) error
}

// JobQueue accepts collection jobs for asynchronous execution. Retry and
// worker dispatch live behind the queue implementation.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) error
}

type Metrics interface {
	RecordRowsStored(backend, symbol string, n int)
	RecordError(kind string)
	RecordArticle(source string, relevant bool)
	RecordSentiment(symbol string, confidence float64)
	RecordLatency(op string, seconds float64)
}

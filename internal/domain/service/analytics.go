package service

import (
	"QuantPull/internal/domain/models"
)

// FeatureEngine turns a raw collected table into an ML-ready feature table.
type FeatureEngine interface {
	// Enrich runs the OHLCV derivation chain: coercion, returns, normalized
	// price, moving averages, volatility, outlier scores, terminal fill.
	Enrich(table *models.RawTable) *models.FeatureTable
	// NormalizeIndicators runs the degraded chain for single-column economic
	// series: coercion, forward fill, sibling min-max column.
	NormalizeIndicators(table *models.RawTable) *models.FeatureTable
}

// SentimentAnalyzer filters, scores and aggregates article collections into
// per-symbol daily summaries.
type SentimentAnalyzer interface {
	Relevant(article *models.Article, keywords []string) bool
	Score(article *models.Article) float64
	Aggregate(articles []*models.Article) []*models.DailySentiment
}

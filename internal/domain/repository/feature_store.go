package repository

import (
	"context"
	"time"

	"QuantPull/internal/domain/models"
)

// Interval represents a sampling interval for collected tables.
type Interval string

const (
	IntervalDaily    Interval = "daily"
	IntervalWeekly   Interval = "weekly"
	IntervalMonthly  Interval = "monthly"
	IntervalEconomic Interval = "economic"
)

// FeatureStore provides read-only access to stored feature tables and
// sentiment summaries for the API.
type FeatureStore interface {
	GetFeatures(ctx context.Context, symbol string, interval Interval, from, to time.Time, limit int) ([]models.FeaturePoint, error)
	GetLatestFeatures(ctx context.Context, symbol string, interval Interval, n int) ([]models.FeaturePoint, error)
	GetSentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.DailySentiment, error)
}

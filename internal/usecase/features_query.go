package usecase

import (
	"context"
	"fmt"
	"time"

	"QuantPull/internal/domain/models"
	domrepo "QuantPull/internal/domain/repository"
)

// FeaturesUseCase provides business logic for reading stored feature tables.
type FeaturesUseCase struct {
	store    domrepo.FeatureStore
	maxLimit int
}

func NewFeaturesUseCase(store domrepo.FeatureStore, maxLimit int) *FeaturesUseCase {
	if maxLimit <= 0 {
		maxLimit = 5000
	}
	return &FeaturesUseCase{store: store, maxLimit: maxLimit}
}

type GetFeaturesParams struct {
	Symbol   string
	Interval domrepo.Interval
	From     time.Time
	To       time.Time
	Limit    int
}

type GetFeaturesResult struct {
	Symbol   string
	Interval string
	From     time.Time
	To       time.Time
	Count    int
	Points   []models.FeaturePoint
}

// GetFeatures returns pivoted feature rows for one (symbol, interval).
// Without a time range it serves the latest rows, which is what dashboards
// poll for.
func (uc *FeaturesUseCase) GetFeatures(ctx context.Context, p GetFeaturesParams) (*GetFeaturesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidInterval(p.Interval) {
		return nil, fmt.Errorf("unknown interval %q", p.Interval)
	}
	if p.Limit <= 0 {
		p.Limit = 500
	}
	if p.Limit > uc.maxLimit {
		p.Limit = uc.maxLimit
	}

	var (
		points []models.FeaturePoint
		err    error
	)
	switch {
	case p.From.IsZero() && p.To.IsZero():
		points, err = uc.store.GetLatestFeatures(ctx, p.Symbol, p.Interval, p.Limit)
	default:
		if p.To.IsZero() {
			p.To = time.Now().UTC()
		}
		if p.From.IsZero() {
			p.From = p.To.AddDate(-1, 0, 0)
		}
		if p.From.After(p.To) {
			return nil, fmt.Errorf("from must be <= to")
		}
		points, err = uc.store.GetFeatures(ctx, p.Symbol, p.Interval, p.From, p.To, p.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("get features: %w", err)
	}

	return &GetFeaturesResult{
		Symbol:   p.Symbol,
		Interval: string(p.Interval),
		From:     p.From,
		To:       p.To,
		Count:    len(points),
		Points:   points,
	}, nil
}

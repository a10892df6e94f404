package usecase

import (
	"context"
	"fmt"

	"QuantPull/internal/domain/models"
	domrepo "QuantPull/internal/domain/repository"
)

// IndicatorsUseCase reads stored economic series. Indicators live in the
// same feature store under the economic interval, keyed by display name.
type IndicatorsUseCase struct {
	store    domrepo.FeatureStore
	maxLimit int
}

func NewIndicatorsUseCase(store domrepo.FeatureStore, maxLimit int) *IndicatorsUseCase {
	if maxLimit <= 0 {
		maxLimit = 5000
	}
	return &IndicatorsUseCase{store: store, maxLimit: maxLimit}
}

type GetIndicatorsResult struct {
	Name   string
	Count  int
	Points []models.FeaturePoint
}

// GetIndicators returns the latest observations of one series, raw and
// normalized columns side by side.
func (uc *IndicatorsUseCase) GetIndicators(ctx context.Context, name string, limit int) (*GetIndicatorsResult, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}
	if limit <= 0 {
		limit = 500
	}
	if limit > uc.maxLimit {
		limit = uc.maxLimit
	}

	points, err := uc.store.GetLatestFeatures(ctx, name, domrepo.IntervalEconomic, limit)
	if err != nil {
		return nil, fmt.Errorf("get indicators: %w", err)
	}

	return &GetIndicatorsResult{
		Name:   name,
		Count:  len(points),
		Points: points,
	}, nil
}

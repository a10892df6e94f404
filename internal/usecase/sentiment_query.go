package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	domrepo "QuantPull/internal/domain/repository"
)

// SentimentUseCase provides business logic for reading daily sentiment rows.
type SentimentUseCase struct {
	store domrepo.FeatureStore
}

func NewSentimentUseCase(store domrepo.FeatureStore) *SentimentUseCase {
	return &SentimentUseCase{store: store}
}

type GetSentimentParams struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// SentimentRow is the serializable shape of one daily row. Std is a pointer
// because single-article days have no spread and JSON has no NaN.
type SentimentRow struct {
	Symbol       string   `json:"symbol"`
	Date         string   `json:"date"`
	Mean         float64  `json:"mean"`
	Std          *float64 `json:"std"`
	Count        int      `json:"count"`
	ArticleCount int      `json:"article_count"`
	Confidence   float64  `json:"confidence"`
}

type GetSentimentResult struct {
	Symbol string
	From   time.Time
	To     time.Time
	Count  int
	Rows   []SentimentRow
}

func (uc *SentimentUseCase) GetSentiment(ctx context.Context, p GetSentimentParams) (*GetSentimentResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.To.IsZero() {
		p.To = time.Now().UTC()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -30)
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}

	rows, err := uc.store.GetSentiment(ctx, p.Symbol, p.From, p.To)
	if err != nil {
		return nil, fmt.Errorf("get sentiment: %w", err)
	}

	out := make([]SentimentRow, 0, len(rows))
	for _, r := range rows {
		row := SentimentRow{
			Symbol:       r.Symbol,
			Date:         r.Date.Format("2006-01-02"),
			Mean:         r.Mean,
			Count:        r.Count,
			ArticleCount: r.ArticleCount,
			Confidence:   r.Confidence,
		}
		if !math.IsNaN(r.Std) {
			std := r.Std
			row.Std = &std
		}
		out = append(out, row)
	}

	return &GetSentimentResult{
		Symbol: p.Symbol,
		From:   p.From,
		To:     p.To,
		Count:  len(out),
		Rows:   out,
	}, nil
}

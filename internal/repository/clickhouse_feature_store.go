package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"QuantPull/internal/domain/models"
	domrepo "QuantPull/internal/domain/repository"
	pkgch "QuantPull/pkg/clickhouse"
	applogger "QuantPull/pkg/logger"
)

// CHFeatureStore implements the read-side FeatureStore over the long-format
// feature_rows table. Rows come back one cell at a time and are pivoted into
// FeaturePoints here; FINAL collapses replaced versions from re-collection.
type CHFeatureStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHFeatureStore(ch *pkgch.Client, database string) *CHFeatureStore {
	return &CHFeatureStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHFeatureStore) GetFeatures(ctx context.Context, symbol string, interval domrepo.Interval, from, to time.Time, limit int) ([]models.FeaturePoint, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, feature, value
        FROM %s.feature_rows FINAL
        WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ?
          AND ts IN (
            SELECT DISTINCT ts FROM %s.feature_rows
            WHERE symbol = ? AND interval = ? AND ts >= ? AND ts <= ?
            ORDER BY ts ASC
            LIMIT ?
          )
        ORDER BY ts ASC, feature ASC
    `
	q := fmt.Sprintf(qtpl, s.database, s.database)
	rows, err := s.db.QueryContext(ctx, q,
		symbol, string(interval), from, to,
		symbol, string(interval), from, to, limit,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_features query error",
				applogger.String("symbol", symbol),
				applogger.String("interval", string(interval)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get features: %w", err)
	}
	defer rows.Close()

	out, err := s.pivot(rows, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_features scan error",
				applogger.String("symbol", symbol),
				applogger.String("interval", string(interval)),
				applogger.Error(err),
			)
		}
		return nil, err
	}
	if s.l != nil {
		s.l.Info("clickhouse get_features ok",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(interval)),
			applogger.Int("points", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHFeatureStore) GetLatestFeatures(ctx context.Context, symbol string, interval domrepo.Interval, n int) ([]models.FeaturePoint, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, feature, value
        FROM %s.feature_rows FINAL
        WHERE symbol = ? AND interval = ?
          AND ts IN (
            SELECT DISTINCT ts FROM %s.feature_rows
            WHERE symbol = ? AND interval = ?
            ORDER BY ts DESC
            LIMIT ?
          )
        ORDER BY ts ASC, feature ASC
    `
	q := fmt.Sprintf(qtpl, s.database, s.database)
	rows, err := s.db.QueryContext(ctx, q,
		symbol, string(interval),
		symbol, string(interval), n,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_features query error",
				applogger.String("symbol", symbol),
				applogger.String("interval", string(interval)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest features: %w", err)
	}
	defer rows.Close()

	out, err := s.pivot(rows, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_features scan error",
				applogger.String("symbol", symbol),
				applogger.String("interval", string(interval)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, err
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_features ok",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(interval)),
			applogger.Int("limit", n),
			applogger.Int("points", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHFeatureStore) GetSentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.DailySentiment, error) {
	start := time.Now()
	const qtpl = `
        SELECT symbol, date, mean, std, scored, articles, confidence
        FROM %s.sentiment_daily FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	q := fmt.Sprintf(qtpl, s.database)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_sentiment query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get sentiment: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailySentiment, 0, 64)
	for rows.Next() {
		var (
			d        models.DailySentiment
			scored   uint32
			articles uint32
		)
		if err := rows.Scan(&d.Symbol, &d.Date, &d.Mean, &d.Std, &scored, &articles, &d.Confidence); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_sentiment scan error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		d.Count = int(scored)
		d.ArticleCount = int(articles)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_sentiment ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// pivot folds (ts, feature, value) rows, already ordered by ts ASC, into
// one FeaturePoint per timestamp.
func (s *CHFeatureStore) pivot(rows *sql.Rows, sizeHint int) ([]models.FeaturePoint, error) {
	if sizeHint <= 0 {
		sizeHint = 64
	}
	out := make([]models.FeaturePoint, 0, sizeHint)
	for rows.Next() {
		var (
			ts      time.Time
			feature string
			value   float64
		)
		if err := rows.Scan(&ts, &feature, &value); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		if len(out) == 0 || !out[len(out)-1].Time.Equal(ts) {
			out = append(out, models.FeaturePoint{Time: ts, Values: make(map[string]float64, 16)})
		}
		out[len(out)-1].Values[feature] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

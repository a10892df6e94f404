package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	pkgch "QuantPull/pkg/clickhouse"
	applogger "QuantPull/pkg/logger"
)

// ClickHouseStorage implements Storage over two ReplacingMergeTree tables:
// feature_rows holds computed tables in long format (one row per cell), and
// sentiment_daily holds one row per (symbol, date) aggregation. Re-collected
// data replaces older versions by updated_at, so collection runs stay
// idempotent.
type ClickHouseStorage struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	batch    int
	l        *applogger.Logger
}

// NewClickHouseStorage creates ClickHouse storage. batch bounds the number
// of VALUES tuples per insert statement.
func NewClickHouseStorage(ch *pkgch.Client, database string, batch int, l *applogger.Logger) drepo.Storage {
	if batch <= 0 {
		batch = 2000
	}
	return &ClickHouseStorage{ch: ch, db: ch.DB(), database: database, batch: batch, l: l}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.feature_rows (
            symbol LowCardinality(String),
            interval LowCardinality(String),
            ts DateTime,
            feature LowCardinality(String),
            value Float64,
            updated_at DateTime
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (symbol, interval, ts, feature)`, s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sentiment_daily (
            symbol LowCardinality(String),
            date Date,
            mean Float64,
            std Float64,
            scored UInt32,
            articles UInt32,
            confidence Float64,
            updated_at DateTime
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (symbol, date)`, s.database),
	}
	return s.ch.InitSchema(ctx, stmts)
}

// StoreTable writes every defined cell of the table. NaN cells are skipped;
// absent rows read back as NaN when the store pivots them.
func (s *ClickHouseStorage) StoreTable(ctx context.Context, t *models.FeatureTable) error {
	if t == nil || t.Len() == 0 {
		return nil
	}

	version := time.Now().UTC()
	q := fmt.Sprintf("INSERT INTO %s.feature_rows (symbol, interval, ts, feature, value, updated_at) VALUES ", s.database)

	values := make([]string, 0, s.batch)
	args := make([]interface{}, 0, s.batch*6)
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		if _, err := s.db.ExecContext(ctx, q+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert feature_rows: %w", err)
		}
		values = values[:0]
		args = args[:0]
		return nil
	}

	for i := 0; i < t.Len(); i++ {
		for _, name := range t.Columns {
			v := t.Data[name][i]
			if math.IsNaN(v) {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, t.Symbol, t.Interval, t.Times[i], name, v, version)
			if len(values) >= s.batch {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if s.l != nil {
		s.l.Debug("clickhouse stored table",
			applogger.String("symbol", t.Symbol),
			applogger.String("interval", t.Interval),
			applogger.Int("rows", t.Len()),
			applogger.Int("columns", len(t.Columns)),
		)
	}
	return nil
}

// StoreSentiment upserts daily aggregation rows. Std may be NaN for
// single-article days; ClickHouse Float64 carries it as-is.
func (s *ClickHouseStorage) StoreSentiment(ctx context.Context, rows []*models.DailySentiment) error {
	if len(rows) == 0 {
		return nil
	}

	version := time.Now().UTC()
	q := fmt.Sprintf("INSERT INTO %s.sentiment_daily (symbol, date, mean, std, scored, articles, confidence, updated_at) VALUES ", s.database)

	for start := 0; start < len(rows); start += s.batch {
		end := start + s.batch
		if end > len(rows) {
			end = len(rows)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, r := range rows[start:end] {
			if r == nil || r.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.Symbol, r.Date, r.Mean, r.Std, uint32(r.Count), uint32(r.ArticleCount), r.Confidence, version)
		}
		if len(values) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert sentiment_daily: %w", err)
		}
	}

	if s.l != nil {
		s.l.Debug("clickhouse stored sentiment", applogger.Int("rows", len(rows)))
	}
	return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

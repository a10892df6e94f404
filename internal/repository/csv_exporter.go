package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	applogger "QuantPull/pkg/logger"
)

// CSVExporter implements Exporter by writing tables under a local directory,
// one file per (symbol, interval) plus a rolling sentiment file. Files are
// written to a temp path and renamed so readers never see a half write.
type CSVExporter struct {
	dir string
	l   *applogger.Logger
	mu  sync.Mutex
}

func NewCSVExporter(dir string, l *applogger.Logger) drepo.Exporter {
	return &CSVExporter{dir: dir, l: l}
}

// ExportTable writes <dir>/<symbol>_<interval>_features.csv with a Date
// column, the numeric columns in table order, then textual columns sorted
// by name. NaN cells come out empty.
func (e *CSVExporter) ExportTable(ctx context.Context, t *models.FeatureTable) error {
	if t == nil || t.Len() == 0 {
		return nil
	}

	textual := make([]string, 0, len(t.Textual))
	for name := range t.Textual {
		textual = append(textual, name)
	}
	sort.Strings(textual)

	header := make([]string, 0, 1+len(t.Columns)+len(textual))
	header = append(header, "Date")
	header = append(header, t.Columns...)
	header = append(header, textual...)

	records := make([][]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		rec := make([]string, 0, len(header))
		rec = append(rec, t.Times[i].UTC().Format("2006-01-02"))
		for _, name := range t.Columns {
			rec = append(rec, formatCell(t.Data[name][i]))
		}
		for _, name := range textual {
			rec = append(rec, t.Textual[name][i])
		}
		records = append(records, rec)
	}

	name := fmt.Sprintf("%s_%s_features.csv", t.Symbol, strings.ToLower(t.Interval))
	if err := e.writeFile(name, header, records); err != nil {
		return err
	}
	if e.l != nil {
		e.l.Debug("csv exported table",
			applogger.String("file", name),
			applogger.Int("rows", t.Len()),
		)
	}
	return nil
}

// ExportSentiment rewrites news_sentiment_daily.csv with the given rows.
// Undefined Std comes out empty, same as NaN cells in tables.
func (e *CSVExporter) ExportSentiment(ctx context.Context, rows []*models.DailySentiment) error {
	if len(rows) == 0 {
		return nil
	}

	header := []string{"Symbol", "Date", "Mean", "Std", "Count", "ArticleCount", "Confidence"}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		records = append(records, []string{
			r.Symbol,
			r.Date.UTC().Format("2006-01-02"),
			formatCell(r.Mean),
			formatCell(r.Std),
			strconv.Itoa(r.Count),
			strconv.Itoa(r.ArticleCount),
			formatCell(r.Confidence),
		})
	}

	if err := e.writeFile("news_sentiment_daily.csv", header, records); err != nil {
		return err
	}
	if e.l != nil {
		e.l.Debug("csv exported sentiment", applogger.Int("rows", len(records)))
	}
	return nil
}

func (e *CSVExporter) writeFile(name string, header []string, records [][]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	final := filepath.Join(e.dir, name)
	tmp := final + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

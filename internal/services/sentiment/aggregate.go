package sentiment

import (
	"math"
	"sort"
	"time"

	"QuantPull/internal/domain/models"
	"QuantPull/internal/services/stats"
	"QuantPull/pkg/util"
)

// Aggregate groups scored articles into one row per symbol and UTC calendar
// day. Mean and dispersion are rounded to four decimals; a single-article
// day leaves the dispersion undefined and takes the configured penalty in
// its confidence instead. Rows come back sorted by symbol, then date.
func (a *Analyzer) Aggregate(articles []*models.Article) []*models.DailySentiment {
	if len(articles) == 0 {
		return nil
	}

	type key struct {
		symbol string
		date   time.Time
	}
	groups := make(map[key][]*models.Article)
	for _, art := range articles {
		k := key{symbol: art.Symbol, date: util.DateOnly(art.PublishedAt)}
		groups[k] = append(groups[k], art)
	}

	out := make([]*models.DailySentiment, 0, len(groups))
	for k, group := range groups {
		scores := make([]float64, len(group))
		linked := 0
		for i, art := range group {
			scores[i] = a.Score(art)
			if art.URL != "" {
				linked++
			}
		}

		row := &models.DailySentiment{
			Symbol:       k.symbol,
			Date:         k.date,
			Mean:         round4(stats.Mean(scores)),
			Std:          math.NaN(),
			Count:        len(scores),
			ArticleCount: linked,
		}
		if len(scores) > 1 {
			row.Std = round4(stats.Std(scores))
		}
		row.Confidence = a.confidence(row.ArticleCount, row.Std)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// confidence blends volume and consistency: the article count saturates at
// ArticleNorm, dispersion discounts the result.
func (a *Analyzer) confidence(articleCount int, std float64) float64 {
	volume := math.Min(float64(articleCount)/a.cfg.ArticleNorm, 1)
	if math.IsNaN(std) {
		std = a.cfg.StdPenalty
	}
	return volume * (1 - std)
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

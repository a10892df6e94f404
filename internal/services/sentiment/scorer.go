package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"QuantPull/internal/domain/models"
	"QuantPull/pkg/logger"
)

// Config carries the aggregation tunables.
type Config struct {
	// ArticleNorm is the per-day article count at which the volume factor
	// of the confidence score saturates.
	ArticleNorm float64
	// StdPenalty stands in for the dispersion of a single-article day.
	StdPenalty float64
	// Blockwords disqualify an article regardless of keyword matches.
	Blockwords []string
}

var defaultBlockwords = []string{"obituary", "weather", "sports", "entertainment", "celebrity"}

// Analyzer filters, scores and aggregates collected articles. Scoring
// prefers a provider-supplied sentiment and falls back to the VADER
// lexicon. Safe for concurrent use.
type Analyzer struct {
	cfg     Config
	lexicon *govader.SentimentIntensityAnalyzer
	log     *logger.Logger
}

func NewAnalyzer(cfg Config, log *logger.Logger) *Analyzer {
	if cfg.ArticleNorm <= 0 {
		cfg.ArticleNorm = 10
	}
	if cfg.StdPenalty <= 0 {
		cfg.StdPenalty = 0.5
	}
	if len(cfg.Blockwords) == 0 {
		cfg.Blockwords = defaultBlockwords
	}
	return &Analyzer{
		cfg:     cfg,
		lexicon: govader.NewSentimentIntensityAnalyzer(),
		log:     log,
	}
}

// Score returns the polarity of one article in [-1, 1]. A sentiment the
// provider computed itself passes through unchanged; everything else goes
// through the lexicon. Articles with no text score neutral.
func (a *Analyzer) Score(article *models.Article) float64 {
	if article.ProviderScore != nil {
		return *article.ProviderScore
	}
	text := strings.TrimSpace(article.Title + " " + article.Description)
	if text == "" {
		return 0
	}
	return a.lexicon.PolarityScores(text).Compound
}

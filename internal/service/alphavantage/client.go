package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	"QuantPull/internal/service/provider"
	"QuantPull/internal/service/ratelimit"
	"QuantPull/pkg/config"
	"QuantPull/pkg/logger"
	"QuantPull/pkg/util"
)

// historyYears caps how far back bar tables reach.
const historyYears = 10

// newsLimit is the feed page size for NEWS_SENTIMENT.
const newsLimit = "200"

// seriesFunctions maps sampling intervals onto the adjusted time-series
// endpoints so every table carries an AdjClose column.
var seriesFunctions = map[drepo.Interval]string{
	drepo.IntervalDaily:   "TIME_SERIES_DAILY_ADJUSTED",
	drepo.IntervalWeekly:  "TIME_SERIES_WEEKLY_ADJUSTED",
	drepo.IntervalMonthly: "TIME_SERIES_MONTHLY_ADJUSTED",
}

// barFields maps canonical column names onto the provider field spellings.
var barFields = map[string]string{
	models.ColOpen:     "1. open",
	models.ColHigh:     "2. high",
	models.ColLow:      "3. low",
	models.ColClose:    "4. close",
	models.ColAdjClose: "5. adjusted close",
	models.ColVolume:   "6. volume",
}

// barColumns fixes the column order of built tables.
var barColumns = []string{
	models.ColOpen, models.ColHigh, models.ColLow,
	models.ColClose, models.ColAdjClose, models.ColVolume,
}

// Client pulls market bars, company overviews and pre-scored news from
// Alpha Vantage.
type Client struct {
	*provider.RESTBase
	apiKey string
	log    *logger.Logger
}

var (
	_ drepo.BarSource     = (*Client)(nil)
	_ drepo.NewsSource    = (*Client)(nil)
	_ drepo.ProfileSource = (*Client)(nil)
)

func NewClient(cfg *config.Config, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	av := cfg.Providers.AlphaVantage
	return &Client{
		RESTBase: provider.NewRESTBase("alphavantage", av.BaseURL, av.Timeout, av.RatePerMinute, limiter),
		apiKey:   av.APIKey,
		log:      log,
	}
}

// FetchBars returns up to ten years of OHLCV history for a symbol at the
// given sampling interval. Cells stay textual; coercion happens in the
// feature engine.
func (c *Client) FetchBars(ctx context.Context, symbol string, interval drepo.Interval) (*models.RawTable, error) {
	function, ok := seriesFunctions[interval]
	if !ok {
		return nil, fmt.Errorf("alphavantage: unsupported interval %q", interval)
	}

	params := map[string]string{
		"function": function,
		"symbol":   symbol,
		"apikey":   c.apiKey,
	}
	if interval == drepo.IntervalDaily {
		params["outputsize"] = "full"
	}

	var payload map[string]json.RawMessage
	if err := c.GetJSONWithRetry(ctx, "time_series", "", params, &payload, 3); err != nil {
		return nil, err
	}
	if err := apiError(payload); err != nil {
		return nil, err
	}

	series, err := extractSeries(payload)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s %s: %w", symbol, interval, err)
	}

	table := buildBarTable(symbol, interval, series)
	c.log.Debug("fetched bars",
		logger.String("provider", c.Name()),
		logger.String("symbol", symbol),
		logger.String("interval", string(interval)),
		logger.Int("rows", table.Len()))
	return table, nil
}

// FetchArticles returns the NEWS_SENTIMENT feed for a ticker. The feed is
// already scoped to the symbol, so keywords only matter downstream.
func (c *Client) FetchArticles(ctx context.Context, symbol string, _ []string) ([]*models.Article, error) {
	params := map[string]string{
		"function": "NEWS_SENTIMENT",
		"tickers":  symbol,
		"limit":    newsLimit,
		"apikey":   c.apiKey,
	}

	var payload newsResponse
	if err := c.GetJSONWithRetry(ctx, "news_sentiment", "", params, &payload, 3); err != nil {
		return nil, err
	}

	articles := make([]*models.Article, 0, len(payload.Feed))
	for _, item := range payload.Feed {
		published, ok := util.ParseTime(item.TimePublished)
		if !ok {
			c.log.Warn("skipping article with unparseable timestamp",
				logger.String("provider", c.Name()),
				logger.String("time_published", item.TimePublished))
			continue
		}

		article := &models.Article{
			Symbol:      symbol,
			Title:       item.Title,
			Description: item.Summary,
			Source:      item.Source,
			URL:         item.URL,
			PublishedAt: published,
		}
		if v, ok := item.OverallScore.value(); ok {
			score := v
			article.ProviderScore = &score
			article.ProviderLabel = item.OverallLabel
		}
		for _, ts := range item.TickerSentiment {
			if !strings.EqualFold(ts.Ticker, symbol) {
				continue
			}
			if v, ok := ts.Score.value(); ok {
				score := v
				article.TickerScore = &score
				article.TickerLabel = ts.Label
			}
			break
		}
		articles = append(articles, article)
	}
	return articles, nil
}

// FetchProfile resolves company reference data from the OVERVIEW endpoint.
func (c *Client) FetchProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	params := map[string]string{
		"function": "OVERVIEW",
		"symbol":   symbol,
		"apikey":   c.apiKey,
	}

	var payload struct {
		Symbol   string `json:"Symbol"`
		Name     string `json:"Name"`
		Sector   string `json:"Sector"`
		Industry string `json:"Industry"`
	}
	if err := c.GetJSONWithRetry(ctx, "overview", "", params, &payload, 3); err != nil {
		return nil, err
	}
	if payload.Name == "" {
		return nil, fmt.Errorf("alphavantage: empty overview for %s", symbol)
	}

	return &models.CompanyProfile{
		Symbol:   symbol,
		Name:     payload.Name,
		Sector:   payload.Sector,
		Industry: payload.Industry,
	}, nil
}

type newsResponse struct {
	Feed []feedItem `json:"feed"`
}

type feedItem struct {
	Title           string            `json:"title"`
	Summary         string            `json:"summary"`
	Source          string            `json:"source"`
	URL             string            `json:"url"`
	TimePublished   string            `json:"time_published"`
	OverallScore    looseFloat        `json:"overall_sentiment_score"`
	OverallLabel    string            `json:"overall_sentiment_label"`
	TickerSentiment []tickerSentiment `json:"ticker_sentiment"`
}

type tickerSentiment struct {
	Ticker         string     `json:"ticker"`
	RelevanceScore looseFloat `json:"relevance_score"`
	Score          looseFloat `json:"ticker_sentiment_score"`
	Label          string     `json:"ticker_sentiment_label"`
}

// looseFloat decodes numbers that arrive either bare or quoted; the feed
// mixes both. The zero value means absent.
type looseFloat struct {
	f   float64
	set bool
}

func (l *looseFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse float %q: %w", s, err)
	}
	l.f = v
	l.set = true
	return nil
}

func (l looseFloat) value() (float64, bool) { return l.f, l.set }

// apiError surfaces the provider's in-band error fields: bad requests come
// back as 200s with an explanatory message.
func apiError(payload map[string]json.RawMessage) error {
	for _, key := range []string{"Error Message", "Note", "Information"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			return fmt.Errorf("alphavantage: %s", msg)
		}
	}
	return nil
}

// extractSeries finds the time-series object; its key spelling differs per
// endpoint ("Time Series (Daily)", "Weekly Adjusted Time Series", ...).
func extractSeries(payload map[string]json.RawMessage) (map[string]map[string]string, error) {
	for key, raw := range payload {
		if !strings.Contains(key, "Time Series") {
			continue
		}
		var series map[string]map[string]string
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil, fmt.Errorf("decode series %q: %w", key, err)
		}
		return series, nil
	}
	return nil, fmt.Errorf("no time series in response")
}

// buildBarTable turns the date-keyed series into a RawTable sorted by
// ascending timestamp and trimmed to the history window.
func buildBarTable(symbol string, interval drepo.Interval, series map[string]map[string]string) *models.RawTable {
	cutoff := time.Now().UTC().AddDate(-historyYears, 0, 0)

	dates := make([]time.Time, 0, len(series))
	rows := make(map[time.Time]map[string]string, len(series))
	for ds, fields := range series {
		t, err := time.Parse("2006-01-02", ds)
		if err != nil || t.Before(cutoff) {
			continue
		}
		dates = append(dates, t)
		rows[t] = fields
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := &models.RawTable{
		Symbol:   symbol,
		Interval: string(interval),
		Times:    dates,
	}
	for _, col := range barColumns {
		field := barFields[col]
		cells := make([]string, len(dates))
		for i, t := range dates {
			cells[i] = rows[t][field]
		}
		table.AddColumn(col, cells)
	}
	return table
}

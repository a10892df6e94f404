package newsapi

import (
	"context"
	"fmt"
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

// Client pulls headlines from the NewsAPI everything endpoint. Articles
// come back unscored; the lexical scorer handles them downstream.
type Client struct {
	*provider.RESTBase
	apiKey   string
	pageSize int
	lookback int
	sources  string
	log      *logger.Logger
}

var _ drepo.NewsSource = (*Client)(nil)

func NewClient(cfg *config.Config, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	n := cfg.Providers.NewsAPI
	return &Client{
		// Free tier allows 100 requests/day; pace to two a minute so a
		// burst of symbols cannot drain the day's budget at once.
		RESTBase: provider.NewRESTBase("newsapi", n.BaseURL, n.Timeout, 2, limiter),
		apiKey:   n.APIKey,
		pageSize: n.PageSize,
		lookback: n.LookbackDays,
		sources:  strings.Join(n.Sources, ","),
		log:      log,
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// FetchArticles queries the lookback window for articles matching any of
// the keywords in a finance context.
func (c *Client) FetchArticles(ctx context.Context, symbol string, keywords []string) ([]*models.Article, error) {
	if len(keywords) == 0 {
		keywords = []string{symbol}
	}

	now := time.Now().UTC()
	params := map[string]string{
		"q":        buildQuery(keywords),
		"sources":  c.sources,
		"from":     now.AddDate(0, 0, -c.lookback).Format("2006-01-02"),
		"to":       now.Format("2006-01-02"),
		"sortBy":   "publishedAt",
		"language": "en",
		"pageSize": strconv.Itoa(c.pageSize),
		"apiKey":   c.apiKey,
	}

	var payload everythingResponse
	if err := c.GetJSONWithRetry(ctx, "everything", "/everything", params, &payload, 3); err != nil {
		return nil, err
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi %s: %s (%s)", symbol, payload.Message, payload.Code)
	}

	articles := make([]*models.Article, 0, len(payload.Articles))
	for _, item := range payload.Articles {
		published, ok := util.ParseTime(item.PublishedAt)
		if !ok {
			c.log.Warn("skipping article with unparseable timestamp",
				logger.String("provider", c.Name()),
				logger.String("published_at", item.PublishedAt))
			continue
		}
		articles = append(articles, &models.Article{
			Symbol:      symbol,
			Title:       item.Title,
			Description: item.Description,
			Source:      item.Source.Name,
			URL:         item.URL,
			PublishedAt: published,
		})
	}
	return articles, nil
}

// buildQuery scopes keyword matches to finance coverage, mirroring the
// query the collection has always used.
func buildQuery(keywords []string) string {
	return fmt.Sprintf("(%s) AND (stock OR trading OR earnings OR financial)",
		strings.Join(keywords, " OR "))
}

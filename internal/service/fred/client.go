package fred

import (
	"context"
	"fmt"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	"QuantPull/internal/service/provider"
	"QuantPull/internal/service/ratelimit"
	"QuantPull/pkg/config"
	"QuantPull/pkg/logger"
)

// historyYears caps how far back observation tables reach.
const historyYears = 10

// Client pulls macroeconomic observation series from the FRED API.
type Client struct {
	*provider.RESTBase
	apiKey string
	log    *logger.Logger
}

var _ drepo.EconSource = (*Client)(nil)

func NewClient(cfg *config.Config, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	f := cfg.Providers.FRED
	return &Client{
		// FRED has no published per-minute cap worth pacing against.
		RESTBase: provider.NewRESTBase("fred", f.BaseURL, f.Timeout, 0, limiter),
		apiKey:   f.APIKey,
		log:      log,
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorMessage string `json:"error_message"`
}

// FetchSeries returns one observation series as a single-column table.
// FRED marks missing observations with "."; the cell passes through as-is
// and the feature engine treats it as missing.
func (c *Client) FetchSeries(ctx context.Context, seriesID, name string) (*models.RawTable, error) {
	now := time.Now().UTC()
	params := map[string]string{
		"series_id":         seriesID,
		"api_key":           c.apiKey,
		"file_type":         "json",
		"observation_start": now.AddDate(-historyYears, 0, 0).Format("2006-01-02"),
		"observation_end":   now.Format("2006-01-02"),
	}

	var payload observationsResponse
	if err := c.GetJSONWithRetry(ctx, "observations", "/series/observations", params, &payload, 3); err != nil {
		return nil, err
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("fred %s: %s", seriesID, payload.ErrorMessage)
	}

	times := make([]time.Time, 0, len(payload.Observations))
	cells := make([]string, 0, len(payload.Observations))
	for _, obs := range payload.Observations {
		t, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			c.log.Warn("skipping observation with bad date",
				logger.String("series", seriesID),
				logger.String("date", obs.Date))
			continue
		}
		times = append(times, t)
		cells = append(cells, obs.Value)
	}

	table := &models.RawTable{
		Symbol:   name,
		Interval: models.IntervalEconomicValue,
		Times:    times,
	}
	table.AddColumn(name, cells)

	c.log.Debug("fetched series",
		logger.String("provider", c.Name()),
		logger.String("series", seriesID),
		logger.String("name", name),
		logger.Int("rows", table.Len()))
	return table, nil
}

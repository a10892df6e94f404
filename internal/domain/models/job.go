package models

// Collection job types carried on the work queue.
const (
	JobMarket = "market"
	JobEcon   = "econ"
	JobNews   = "news"
)

// CollectJob is one unit of collection work: a (symbol, interval) pair for
// market jobs, a FRED series for econ jobs, a symbol for news jobs.
type CollectJob struct {
	Type     string `json:"type"`
	Symbol   string `json:"symbol,omitempty"`
	Interval string `json:"interval,omitempty"`
	SeriesID string `json:"series_id,omitempty"`
	Series   string `json:"series,omitempty"` // display name
}

package models

import "time"

// DailySentiment is one (symbol, calendar date) aggregation row over the
// relevant scored articles of that day. Regenerated fully on each run.
type DailySentiment struct {
	Symbol       string
	Date         time.Time // UTC midnight
	Mean         float64
	Std          float64 // NaN when a single article leaves it undefined
	Count        int     // scored articles in the group
	ArticleCount int     // articles carrying a URL
	Confidence   float64 // in [0,1]
}

package models

import "time"

// Article is one collected news item, normalized across providers by the
// source adapters. Created once, never mutated.
type Article struct {
	Symbol      string
	Title       string
	Description string
	Source      string
	URL         string
	PublishedAt time.Time

	// Provider-supplied sentiment, when the source computes its own.
	// nil means the lexical scorer decides.
	ProviderScore *float64
	ProviderLabel string
	TickerScore   *float64
	TickerLabel   string
}

// CompanyProfile carries the reference data used to derive news-relevance
// keywords for a symbol.
type CompanyProfile struct {
	Symbol   string
	Name     string
	Sector   string
	Industry string
}

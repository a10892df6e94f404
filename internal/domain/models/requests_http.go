package models

// Requests for the read/collect HTTP endpoints. Defined in domain for
// consistency and reuse.

type FeaturesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Interval string `query:"interval" json:"interval" default:"daily" validate:"oneof=daily weekly monthly economic"`
	From     string `query:"from" json:"from"`
	To       string `query:"to" json:"to"`
	Limit    int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type SentimentRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
}

type IndicatorsRequest struct {
	Name  string `query:"name" json:"name" validate:"required"`
	Limit int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type CollectRequest struct {
	Type      string   `json:"type" validate:"required,oneof=market econ news all"`
	Symbols   []string `json:"symbols,omitempty"`
	Intervals []string `json:"intervals,omitempty" validate:"omitempty,dive,oneof=daily weekly monthly"`
}

package repository

import (
	"context"
	"math"
	"time"

	"QuantPull/internal/domain/models"
	drepo "QuantPull/internal/domain/repository"
	pkgkafka "QuantPull/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Tables go out one message
// per timestamp keyed by symbol, so a hash-balanced producer keeps each
// symbol's rows ordered within a partition.
type KafkaPublisher struct {
	producer       *pkgkafka.Producer
	featuresTopic  string
	sentimentTopic string
}

// NewKafkaPublisher creates a Kafka publisher over an owned producer.
func NewKafkaPublisher(producer *pkgkafka.Producer, featuresTopic, sentimentTopic string) drepo.Publisher {
	return &KafkaPublisher{
		producer:       producer,
		featuresTopic:  featuresTopic,
		sentimentTopic: sentimentTopic,
	}
}

type featureRowPayload struct {
	Symbol   string             `json:"symbol"`
	Interval string             `json:"interval"`
	Time     string             `json:"ts"`
	Features map[string]float64 `json:"features"`
}

type sentimentPayload struct {
	Symbol       string   `json:"symbol"`
	Date         string   `json:"date"`
	Mean         float64  `json:"mean"`
	Std          *float64 `json:"std"` // null when a single article leaves it undefined
	Count        int      `json:"count"`
	ArticleCount int      `json:"article_count"`
	Confidence   float64  `json:"confidence"`
}

// PublishTable emits one message per row. NaN cells are omitted from the
// feature map; JSON has no encoding for them.
func (p *KafkaPublisher) PublishTable(ctx context.Context, t *models.FeatureTable) error {
	if t == nil || t.Len() == 0 {
		return nil
	}

	msgs := make([]pkgkafka.Message, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		features := make(map[string]float64, len(t.Columns))
		for _, name := range t.Columns {
			if v := t.Data[name][i]; !math.IsNaN(v) {
				features[name] = v
			}
		}
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(t.Symbol),
			Value: featureRowPayload{
				Symbol:   t.Symbol,
				Interval: t.Interval,
				Time:     t.Times[i].UTC().Format(time.RFC3339),
				Features: features,
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.featuresTopic, msgs)
}

// PublishSentiment emits one message per (symbol, date) row.
func (p *KafkaPublisher) PublishSentiment(ctx context.Context, rows []*models.DailySentiment) error {
	if len(rows) == 0 {
		return nil
	}

	msgs := make([]pkgkafka.Message, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		var std *float64
		if !math.IsNaN(r.Std) {
			v := r.Std
			std = &v
		}
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(r.Symbol),
			Value: sentimentPayload{
				Symbol:       r.Symbol,
				Date:         r.Date.UTC().Format("2006-01-02"),
				Mean:         r.Mean,
				Std:          std,
				Count:        r.Count,
				ArticleCount: r.ArticleCount,
				Confidence:   r.Confidence,
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.sentimentTopic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

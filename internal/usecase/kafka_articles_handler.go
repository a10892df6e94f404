package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"QuantPull/internal/domain/models"
	domrepo "QuantPull/internal/domain/repository"
	mid "QuantPull/internal/middleware"
	pkgkafka "QuantPull/pkg/kafka"
	applogger "QuantPull/pkg/logger"
	"QuantPull/pkg/util"
)

// KafkaArticlesHandler consumes externally published articles and feeds
// them into the same intake path as the live stream. Partner systems can
// push headlines without speaking any provider protocol.
type KafkaArticlesHandler struct {
	topic   string
	proc    mid.Proc
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewKafkaArticlesHandler(topic string, proc mid.Proc, metrics domrepo.Metrics, log *applogger.Logger) *KafkaArticlesHandler {
	return &KafkaArticlesHandler{topic: topic, proc: proc, metrics: metrics, log: log}
}

func (h *KafkaArticlesHandler) Topic() string { return h.topic }

// incoming message schema:
// {symbol, title, description, source, url, published_at, provider_score, provider_label}
func (h *KafkaArticlesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol        string   `json:"symbol"`
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		Source        string   `json:"source"`
		URL           string   `json:"url"`
		PublishedAt   string   `json:"published_at"`
		ProviderScore *float64 `json:"provider_score"`
		ProviderLabel string   `json:"provider_label"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	published, ok := util.ParseTime(m.PublishedAt)
	if !ok {
		h.metrics.RecordError("consumer_timestamp")
		return fmt.Errorf("unparseable published_at %q", m.PublishedAt)
	}
	// E2E latency from publish time to now (approx)
	h.metrics.RecordLatency("articles_e2e", time.Since(published).Seconds())

	a := &models.Article{
		Symbol:        m.Symbol,
		Title:         m.Title,
		Description:   m.Description,
		Source:        m.Source,
		URL:           m.URL,
		PublishedAt:   published,
		ProviderScore: m.ProviderScore,
		ProviderLabel: m.ProviderLabel,
	}
	if err := h.proc.Process(ctx, a); err != nil {
		h.metrics.RecordError("consumer_process")
		return err
	}

	h.log.Debug("article consumed",
		applogger.String("symbol", m.Symbol),
		applogger.String("source", m.Source),
		applogger.String("trace_id", pkgkafka.TraceIDFromContext(ctx)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaArticlesHandler)(nil)

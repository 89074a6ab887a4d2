package usecase

import (
	"context"
	"encoding/json"
	"time"

	"NeuroFeat/internal/domain/models"
	domrepo "NeuroFeat/internal/domain/repository"
	pkgkafka "NeuroFeat/pkg/kafka"
)

// KafkaSegmentsHandler consumes Kafka segment messages and writes to storage.
type KafkaSegmentsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaSegmentsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaSegmentsHandler {
	return &KafkaSegmentsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSegmentsHandler) Topic() string { return h.topic }

// incoming message schema: {session, ch, t, samples, label}
func (h *KafkaSegmentsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Session string    `json:"session"`
		Ch      int       `json:"ch"`
		T       int64     `json:"t"`
		Samples []float64 `json:"samples"`
		Label   string    `json:"label"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.Segment{
		SessionID: m.Session,
		Channel:   m.Ch,
		Timestamp: m.T,
		Samples:   m.Samples,
		Label:     m.Label,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", m.Session)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSegmentsHandler)(nil)

package usecase

import (
	"context"
	"fmt"
	"time"

	"NeuroFeat/internal/domain/models"
	drepo "NeuroFeat/internal/domain/repository"
)

// SegmentProcessor routes raw segments to the configured ingest backend.
type SegmentProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewSegmentProcessor creates a new SegmentProcessor instance.
func NewSegmentProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *SegmentProcessor {
	return &SegmentProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single segment to the configured backend.
func (p *SegmentProcessor) Process(ctx context.Context, seg *models.Segment) error {
	if seg == nil {
		return fmt.Errorf("segment is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, seg)
	case "clickhouse":
		err = p.store.Store(ctx, seg)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("ingest")
		return fmt.Errorf("ingest segment: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, seg.SessionID)
	p.metrics.RecordLatency("ingest", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple segments in a batch.
func (p *SegmentProcessor) ProcessBatch(ctx context.Context, segs []*models.Segment) error {
	if len(segs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, segs)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, segs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("ingest_batch")
		return fmt.Errorf("ingest batch: %w", err)
	}

	for _, seg := range segs {
		p.metrics.RecordMessageSent(p.backend, seg.SessionID)
	}
	p.metrics.RecordLatency("ingest_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *SegmentProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

package repository

import (
	"context"
	"time"

	"NeuroFeat/internal/domain/models"
)

// DeviceStream is a live acquisition source pushing raw signal segments.
type DeviceStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Segment, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher forwards raw segments to the streaming backend.
type Publisher interface {
	Publish(ctx context.Context, seg *models.Segment) error
	PublishBatch(ctx context.Context, segs []*models.Segment) error
	Close() error
}

// Storage persists raw segments for later corpus featurization.
type Storage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, seg *models.Segment) error
	StoreBatch(ctx context.Context, segs []*models.Segment) error
	Health(ctx context.Context) error
	Close() error
}

// CorpusStore reads stored segments back as labeled signals.
type CorpusStore interface {
	ListSessions(ctx context.Context, from, to time.Time, limit int) ([]string, error)
	GetSignals(ctx context.Context, sessionIDs []string, from, to time.Time) ([]models.Signal, error)
}

// Metrics is the domain-facing metrics recorder.
type Metrics interface {
	RecordMessageSent(backend, session string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordBatchSize(backend string, signals int)
}

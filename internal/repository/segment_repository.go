package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

	"NeuroFeat/internal/domain/models"
	"NeuroFeat/internal/domain/repository"
	pkgkafka "NeuroFeat/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, seg *models.Segment) error {
	// Insert into raw_segments schema
	q := fmt.Sprintf("INSERT INTO %s (ts, session, channel, samples, label, source, event_id, seq) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	// Simple idempotency placeholders: event_id and seq derived from session+channel+timestamp
	eventID := fmt.Sprintf("%s-%d-%d", seg.SessionID, seg.Channel, seg.Timestamp)
	seq := uint64(seg.Timestamp)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(seg.Timestamp, 0),
		seg.SessionID,
		int32(seg.Channel),
		seg.Samples,
		seg.Label,
		"eegstream",
		eventID,
		seq,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, segs []*models.Segment) error {
    if len(segs) == 0 {
        return nil
    }
    // Batch insert using VALUES multi-row to reduce round-trips.
    // Chunk size tuned to 500 rows per batch since each row carries an array.
    const chunkSize = 500
    for start := 0; start < len(segs); start += chunkSize {
        end := start + chunkSize
        if end > len(segs) { end = len(segs) }

        // Build VALUES list
        values := make([]string, 0, end-start)
        args := make([]interface{}, 0, (end-start)*8)
        for _, seg := range segs[start:end] {
            if seg == nil || seg.SessionID == "" || seg.Timestamp == 0 { continue }
            eventID := fmt.Sprintf("%s-%d-%d", seg.SessionID, seg.Channel, seg.Timestamp)
            seq := uint64(seg.Timestamp)
            values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
            args = append(args,
                time.Unix(seg.Timestamp, 0),
                seg.SessionID,
                int32(seg.Channel),
                seg.Samples,
                seg.Label,
                "eegstream",
                eventID,
                seq,
            )
        }
        if len(values) == 0 { continue }
        q := fmt.Sprintf("INSERT INTO %s (ts, session, channel, samples, label, source, event_id, seq) VALUES %s", s.table, strings.Join(values, ","))
        if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
            return err
        }
    }
    return nil
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
    producer *pkgkafka.Producer
    topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, seg *models.Segment) error {
	return p.producer.Publish(ctx, p.topic, []byte(seg.SessionID), map[string]interface{}{
		"session": seg.SessionID,
		"ch":      seg.Channel,
		"t":       seg.Timestamp,
		"samples": seg.Samples,
		"label":   seg.Label,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, segs []*models.Segment) error {
	if len(segs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(segs))
	for i, seg := range segs {
		msgs[i] = pkgkafka.Message{
			Key: []byte(seg.SessionID),
			Value: map[string]interface{}{
				"session": seg.SessionID,
				"ch":      seg.Channel,
				"t":       seg.Timestamp,
				"samples": seg.Samples,
				"label":   seg.Label,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
    if p.producer != nil {
        return p.producer.Close()
    }
    return nil
}

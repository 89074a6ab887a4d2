package exec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"NeuroFeat/internal/services/features"
	"NeuroFeat/pkg/logger"
	"NeuroFeat/pkg/queue"

	"github.com/redis/go-redis/v9"
)

const msgTypeRow = "featurize.row"

// OverrideRegistrar is implemented by backends whose workers resolve feature
// names on their side. Custom functions cannot cross a process boundary, so
// they are parked in a batch-scoped table passed to workers explicitly — the
// global registry is never mutated, and concurrent batches stay isolated.
type OverrideRegistrar interface {
	RegisterOverrides(batchID string, custom map[string]features.Func)
	UnregisterOverrides(batchID string)
}

// RedisBackend distributes featurization tasks over the Redis task queue.
// The queue's workers compute rows and push them to a per-batch result list;
// Run blocks collecting results and re-orders them to submission order.
type RedisBackend struct {
	logger    *logger.Logger
	queue     *queue.RedisQueue
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration

	mu        sync.RWMutex
	overrides map[string]map[string]features.Func
}

// RedisBackendOption configures RedisBackend.
type RedisBackendOption func(*RedisBackend)

// WithResultTimeout bounds how long Run waits for a full batch of results.
func WithResultTimeout(d time.Duration) RedisBackendOption {
	return func(b *RedisBackend) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithResultKeyPrefix sets the Redis key prefix for result lists.
func WithResultKeyPrefix(prefix string) RedisBackendOption {
	return func(b *RedisBackend) { b.keyPrefix = prefix }
}

// NewRedisBackend creates the distributed backend and registers its row job
// on the queue so in-process workers can serve batches.
func NewRedisBackend(lgr *logger.Logger, q *queue.RedisQueue, client *redis.Client, opts ...RedisBackendOption) *RedisBackend {
	b := &RedisBackend{
		logger:    lgr,
		queue:     q,
		client:    client,
		keyPrefix: "neurofeat:featurize",
		timeout:   2 * time.Minute,
		overrides: make(map[string]map[string]features.Func),
	}
	for _, opt := range opts {
		opt(b)
	}
	q.RegisterJob(&rowJob{b: b})
	return b
}

func (b *RedisBackend) Name() string { return BackendRedis }

// RegisterOverrides parks a batch's custom functions for worker-side resolve.
func (b *RedisBackend) RegisterOverrides(batchID string, custom map[string]features.Func) {
	if len(custom) == 0 {
		return
	}
	b.mu.Lock()
	b.overrides[batchID] = custom
	b.mu.Unlock()
}

// UnregisterOverrides drops a batch's custom functions.
func (b *RedisBackend) UnregisterOverrides(batchID string) {
	b.mu.Lock()
	delete(b.overrides, batchID)
	b.mu.Unlock()
}

func (b *RedisBackend) customFor(batchID string) map[string]features.Func {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overrides[batchID]
}

func (b *RedisBackend) Run(ctx context.Context, tasks []Task) ([][]float64, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	if tasks[0].Payload == nil {
		return nil, fmt.Errorf("redis backend requires serializable task payloads")
	}
	batchID := tasks[0].Payload.BatchID
	resultKey := b.resultKey(batchID)
	defer b.client.Del(context.Background(), resultKey)

	start := time.Now()
	for _, task := range tasks {
		if task.Payload == nil {
			return nil, fmt.Errorf("task %d: missing payload", task.Index)
		}
		if err := b.queue.Enqueue(ctx, msgTypeRow, task.Payload); err != nil {
			return nil, &TaskFailureError{Index: task.Index, Reason: fmt.Sprintf("enqueue: %v", err)}
		}
	}
	b.logger.Info("batch dispatched",
		logger.String("batch_id", batchID),
		logger.Int("tasks", len(tasks)))

	rows := make([][]float64, len(tasks))
	received := make([]bool, len(tasks))
	deadline := time.Now().Add(b.timeout)

	for n := 0; n < len(tasks); n++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, &TaskFailureError{Index: firstMissing(received), Reason: "timed out waiting for results"}
		}
		res, err := b.client.BRPop(ctx, remaining, resultKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, &TaskFailureError{Index: firstMissing(received), Reason: "timed out waiting for results"}
			}
			return nil, &TaskFailureError{Index: firstMissing(received), Reason: fmt.Sprintf("collect: %v", err)}
		}
		if len(res) < 2 {
			continue
		}
		var r rowResult
		if err := r.unmarshal([]byte(res[1])); err != nil {
			return nil, &TaskFailureError{Index: firstMissing(received), Reason: fmt.Sprintf("decode result: %v", err)}
		}
		if r.Index < 0 || r.Index >= len(tasks) {
			return nil, &TaskFailureError{Index: r.Index, Reason: "result index out of range"}
		}
		if r.Err != "" {
			return nil, r.toError()
		}
		rows[r.Index] = decodeRow(r.Row)
		received[r.Index] = true
	}

	b.logger.Info("batch collected",
		logger.String("batch_id", batchID),
		logger.Int("rows", len(rows)),
		logger.Duration("elapsed", time.Since(start)))
	return rows, nil
}

func (b *RedisBackend) resultKey(batchID string) string {
	return fmt.Sprintf("%s:results:%s", b.keyPrefix, batchID)
}

func firstMissing(received []bool) int {
	for i, ok := range received {
		if !ok {
			return i
		}
	}
	return -1
}

// rowJob is the queue job computing one signal's feature row. Compute
// failures are conveyed through the result list rather than the job error
// path: the batch policy is fail-fast with no retries, while the queue's
// error path would retry and dead-letter.
type rowJob struct {
	b *RedisBackend
}

func (j *rowJob) Name() string { return "featurize row" }
func (j *rowJob) Type() string { return msgTypeRow }

func (j *rowJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[Payload](payload)
	if err != nil {
		return fmt.Errorf("parse featurize payload: %w", err)
	}

	res := rowResult{Index: p.Index}
	fns, err := features.Resolve(p.Features, j.b.customFor(p.BatchID))
	if err != nil {
		res.Err = err.Error()
	} else {
		row, cerr := features.ComputeSignal(&p.Signal, fns)
		if cerr != nil {
			res.fromError(cerr)
		} else {
			res.Row = encodeRow(row)
		}
	}

	data, err := res.marshal()
	if err != nil {
		return fmt.Errorf("marshal row result: %w", err)
	}
	key := j.b.resultKey(p.BatchID)
	pipe := j.b.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, 10*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push row result: %w", err)
	}
	return nil
}

// encodeRow maps NaN to null so rows survive JSON transport.
func encodeRow(row []float64) []*float64 {
	out := make([]*float64, len(row))
	for i := range row {
		if math.IsNaN(row[i]) {
			continue
		}
		v := row[i]
		out[i] = &v
	}
	return out
}

func decodeRow(row []*float64) []float64 {
	out := make([]float64, len(row))
	for i := range row {
		if row[i] == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *row[i]
	}
	return out
}

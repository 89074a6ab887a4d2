package middleware

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"NeuroFeat/internal/domain/models"
)

type countingProc struct {
	calls atomic.Int64
	fail  atomic.Bool
}

func (p *countingProc) Process(ctx context.Context, seg *models.Segment) error {
	p.calls.Add(1)
	if p.fail.Load() {
		return fmt.Errorf("downstream unavailable")
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLatency(string, float64)    {}
func (nopMetrics) RecordBatchSize(string, int)      {}

func seg(session string) *models.Segment {
	return &models.Segment{
		SessionID: session,
		Channel:   0,
		Timestamp: time.Now().Unix(),
		Samples:   []float64{1, 2, 3},
	}
}

func TestPipelineRejectsInvalidSegment(t *testing.T) {
	proc := &countingProc{}
	p := NewIngestPipeline(proc, nopMetrics{})

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil segment must be rejected")
	}
	if err := p.Process(context.Background(), &models.Segment{SessionID: "s"}); err == nil {
		t.Fatalf("segment without samples must be rejected")
	}
	if proc.calls.Load() != 0 {
		t.Fatalf("invalid segments must not reach downstream")
	}
}

func TestPipelineForwardsValidSegment(t *testing.T) {
	proc := &countingProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMaxRPS(1000))

	if err := p.Process(context.Background(), seg("s1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.calls.Load() != 1 {
		t.Fatalf("expected 1 downstream call, got %d", proc.calls.Load())
	}
}

func TestPipelineThrottlesPerSession(t *testing.T) {
	proc := &countingProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMaxRPS(2))

	// burst above the bucket capacity; throttled segments are dropped silently
	for i := 0; i < 10; i++ {
		if err := p.Process(context.Background(), seg("burst")); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if got := proc.calls.Load(); got > 3 {
		t.Fatalf("throttle let %d of 10 segments through", got)
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &countingProc{}
	proc.fail.Store(true)
	p := NewIngestPipeline(proc, nopMetrics{}, WithBufferSize(4), WithMaxRPS(1000))

	if err := p.Process(context.Background(), seg("s1")); err == nil {
		t.Fatalf("downstream failure must surface an error")
	}

	// recovered downstream drains the buffer
	proc.fail.Store(false)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if proc.calls.Load() >= 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("buffered segment was not flushed, calls=%d", proc.calls.Load())
}

func TestPipelineTransformHook(t *testing.T) {
	proc := &countingProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMaxRPS(1000),
		WithTransform(func(s *models.Segment) *models.Segment {
			s.Label = "tagged"
			return s
		}))

	s := seg("s1")
	if err := p.Process(context.Background(), s); err != nil {
		t.Fatalf("process: %v", err)
	}
	if s.Label != "tagged" {
		t.Fatalf("transform hook not applied")
	}
}

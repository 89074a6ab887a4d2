package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NeuroFeat/internal/domain/models"
	domrepo "NeuroFeat/internal/domain/repository"
	"NeuroFeat/internal/service/ratelimit"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, seg *models.Segment) error
}

// IngestPipeline sits between the device stream and the ingest backend.
// It validates, throttles per session, optionally transforms, and buffers
// when downstream is unavailable.
type IngestPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	bufSize int
	bufCh   chan *models.Segment
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	limiter *ratelimit.Limiter // per-session token bucket
	// simple format transform hook (optional)
	transform func(*models.Segment) *models.Segment
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max segments per second per session.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to modify segment format.
func WithTransform(fn func(*models.Segment) *models.Segment) PipelineOption {
	return func(p *IngestPipeline) { p.transform = fn }
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:    proc,
		metrics: metrics,
		maxRPS:  20,   // default throttle per session
		bufSize: 1000, // default buffer
		bufCh:   make(chan *models.Segment, 1000),
		stopCh:  make(chan struct{}),
		limiter: ratelimit.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Segment, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(session string) { p.metrics.RecordError("pipeline_throttle_" + session) }
	return p
}

// Start launches background flushing of buffered segments.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case seg := <-p.bufCh:
				if seg == nil {
					continue
				}
				if err := p.proc.Process(ctx, seg); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- seg:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a segment downstream, buffering on errors.
func (p *IngestPipeline) Process(ctx context.Context, seg *models.Segment) error {
	start := time.Now()
	if err := validateSegment(seg); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		seg = p.transform(seg)
		if err := validateSegment(seg); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(seg.SessionID) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(seg.SessionID)
		}
		return nil
	}

	if err := p.proc.Process(ctx, seg); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- seg:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSegment(seg *models.Segment) error {
	if seg == nil {
		return fmt.Errorf("segment nil")
	}
	if seg.SessionID == "" {
		return fmt.Errorf("session empty")
	}
	if seg.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if seg.Channel < 0 {
		return fmt.Errorf("negative channel")
	}
	if len(seg.Samples) == 0 {
		return fmt.Errorf("empty samples")
	}
	return nil
}

func (p *IngestPipeline) allow(session string) bool {
	if p.maxRPS <= 0 {
		return true
	}
	return p.limiter.Allow(session, float64(p.maxRPS), float64(p.maxRPS))
}

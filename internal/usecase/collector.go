package usecase

import (
	"context"

	"NeuroFeat/internal/domain/models"
	drepo "NeuroFeat/internal/domain/repository"
	mid "NeuroFeat/internal/middleware"
)

// SegmentCollector collects segments from the device stream and processes them.
type SegmentCollector struct {
	stream  drepo.DeviceStream
	proc    *SegmentProcessor
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
}

// NewSegmentCollector creates a new SegmentCollector instance.
func NewSegmentCollector(stream drepo.DeviceStream, proc *SegmentProcessor, metrics drepo.Metrics, pipe *mid.IngestPipeline) *SegmentCollector {
	return &SegmentCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the device stream is connected.
func (c *SegmentCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SegmentCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	segCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, segCh, errCh)
	return nil
}

func (c *SegmentCollector) consume(ctx context.Context, segCh <-chan *models.Segment, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case seg := <-segCh:
			if seg == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, seg)
			} else {
				_ = c.proc.Process(ctx, seg)
			}
		}
	}
}

func (c *SegmentCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying SegmentProcessor for lifecycle management.
func (c *SegmentCollector) Processor() *SegmentProcessor { return c.proc }

// Shutdown stops pipeline and closes stream.
func (c *SegmentCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}

package exec

import (
	"context"
	"fmt"

	"NeuroFeat/internal/domain/models"
)

// Backend names accepted in configuration. Selection is explicit, never
// auto-detected from broker availability.
const (
	BackendSequential = "sequential"
	BackendParallel   = "parallel"
	BackendRedis      = "redis"
)

// Task is one independent per-signal featurization unit. Run computes the
// signal's dense feature row. Payload carries the serializable form of the
// same work for backends that ship tasks over a broker.
type Task struct {
	Index   int
	Run     func(ctx context.Context) ([]float64, error)
	Payload *Payload
}

// Payload is the wire form of a featurization task.
type Payload struct {
	BatchID  string        `json:"batch_id"`
	Index    int           `json:"index"`
	Signal   models.Signal `json:"signal"`
	Features []string      `json:"features"`
}

// Backend runs a batch of independent tasks and returns their rows in
// submission order, regardless of internal completion order. The first task
// failure aborts the batch; in-flight tasks may finish but no new tasks are
// started after a failure.
type Backend interface {
	Name() string
	Run(ctx context.Context, tasks []Task) ([][]float64, error)
}

// TaskFailureError reports a dispatched task that did not return a result:
// worker crash, broker error, or collection timeout. Distinct from a feature
// function failing, which surfaces as features.ComputationError.
type TaskFailureError struct {
	Index  int
	Reason string
}

func (e *TaskFailureError) Error() string {
	return fmt.Sprintf("task %d did not complete: %s", e.Index, e.Reason)
}

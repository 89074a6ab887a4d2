package exec

import "context"

// SequentialBackend executes tasks one at a time in the calling goroutine.
// Ordering is deterministic by construction and the first error aborts the
// remaining tasks immediately.
type SequentialBackend struct{}

func NewSequentialBackend() *SequentialBackend { return &SequentialBackend{} }

func (b *SequentialBackend) Name() string { return BackendSequential }

func (b *SequentialBackend) Run(ctx context.Context, tasks []Task) ([][]float64, error) {
	rows := make([][]float64, len(tasks))
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, &TaskFailureError{Index: task.Index, Reason: err.Error()}
		}
		row, err := task.Run(ctx)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

package exec

import (
	"context"
	"sync"
)

// ParallelBackend fans tasks out over an in-process worker pool. Tasks are
// independent and share no mutable state, so no coordination beyond
// fan-out/fan-in is needed. After the first failure no new tasks are
// started; tasks already running drain before the error is surfaced.
type ParallelBackend struct {
	workers int
}

func NewParallelBackend(workers int) *ParallelBackend {
	if workers <= 0 {
		workers = 4
	}
	return &ParallelBackend{workers: workers}
}

func (b *ParallelBackend) Name() string { return BackendParallel }

func (b *ParallelBackend) Run(ctx context.Context, tasks []Task) ([][]float64, error) {
	rows := make([][]float64, len(tasks))

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	taskCh := make(chan int)

	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskCh {
				if failed() {
					continue
				}
				row, err := tasks[i].Run(ctx)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					rows[i] = row
				}
				mu.Unlock()
			}
		}()
	}

	for i := range tasks {
		taskCh <- i
	}
	close(taskCh)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return rows, nil
}

package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

type Worker interface {
	Name() string
	Start(context.Context) error
}

// Group runs workers until ctx is cancelled or any of them returns, then waits for the rest
// to stop. A worker that returns early leaves the bot without inbound traffic, so it stops
// the whole group even without an error.
type Group []Worker

func (g Group) Start(ctx context.Context) error {
	runCtx, stopAll := context.WithCancel(ctx)
	defer stopAll()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result error
	)
	for _, w := range g {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer stopAll()

			err := w.Start(runCtx)
			if err == nil {
				if runCtx.Err() == nil {
					slog.Warn("Worker exited early, stopping group", "name", w.Name())
				}
				return
			}

			slog.Error("Worker failed", "name", w.Name(), logger.Err(err))
			mu.Lock()
			result = multierror.Append(result, fmt.Errorf("%s: %w", w.Name(), err))
			mu.Unlock()
		}()
	}

	wg.Wait()

	return result
}

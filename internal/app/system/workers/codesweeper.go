// internal/app/system/workers/codesweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExpiredCodeDeleter removes expired verification codes.
type ExpiredCodeDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CodeSweeper is a background worker that deletes expired verification codes.
type CodeSweeper struct {
	codes    ExpiredCodeDeleter
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewCodeSweeper creates a sweeper that runs every interval.
func NewCodeSweeper(codes ExpiredCodeDeleter, logger *zap.Logger, interval time.Duration) *CodeSweeper {
	return &CodeSweeper{
		codes:    codes,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *CodeSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("verification code sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *CodeSweeper) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("verification code sweeper stopped")
	})
}

func (w *CodeSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep()
		}
	}
}

// Sweep runs one pass and returns the number of rows removed.
func (w *CodeSweeper) Sweep() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.codes.DeleteExpired(ctx)
	if err != nil {
		w.log.Error("failed to delete expired verification codes", zap.Error(err))
		return 0
	}
	if count > 0 {
		w.log.Info("deleted expired verification codes", zap.Int64("count", count))
	}
	return count
}

package worker

import (
	"context"
	"log/slog"
	"time"
)

// Reloader rebuilds the portfolio registry from disk.
type Reloader interface {
	Reload() error
}

// RescanWorker periodically reloads the portfolio registry so that files
// added or removed outside the application become visible.
type RescanWorker struct {
	reloader Reloader
	interval time.Duration
}

// NewRescanWorker creates a new RescanWorker.
func NewRescanWorker(reloader Reloader, interval time.Duration) *RescanWorker {
	return &RescanWorker{
		reloader: reloader,
		interval: interval,
	}
}

// Run starts the rescan loop. It blocks until the context is cancelled.
// A non-positive interval disables the worker.
func (w *RescanWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		slog.Info("RescanWorker: disabled")
		return
	}
	slog.Info("RescanWorker: starting", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RescanWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.reloader.Reload(); err != nil {
				slog.Error("RescanWorker: reload failed", "error", err)
			} else {
				slog.Debug("RescanWorker: reload completed")
			}
		}
	}
}

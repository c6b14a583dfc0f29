package worker

import (
	"context"
	"log/slog"
	"time"
)

// SnapshotCapturer archives every registered portfolio for a date.
type SnapshotCapturer interface {
	CaptureAll(ctx context.Context, date time.Time) error
}

// AfterSnapshotHook is called after each snapshot run, even a partially failed one.
type AfterSnapshotHook interface {
	Publish(ctx context.Context) error
}

// SnapshotWorker periodically archives portfolio documents.
type SnapshotWorker struct {
	capturer SnapshotCapturer
	interval time.Duration
	hook     AfterSnapshotHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional post-capture hook.
func NewSnapshotWorker(capturer SnapshotCapturer, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		capturer: capturer,
		interval: interval,
		hook:     hook,
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (w *SnapshotWorker) runOnce(ctx context.Context) {
	if err := w.capturer.CaptureAll(ctx, utcDate()); err != nil {
		slog.Error("SnapshotWorker: capture failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: capture completed")
	}

	if w.hook == nil {
		return
	}
	if err := w.hook.Publish(ctx); err != nil {
		slog.Error("SnapshotWorker: publish hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: publish hook completed")
	}
}

// Run starts the snapshot loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "interval", w.interval)

	// Capture immediately on startup
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DocumentSource returns the validated JSON of a named portfolio.
type DocumentSource interface {
	Raw(name string) (json.RawMessage, error)
}

// NameLister lists the registered portfolio names.
type NameLister interface {
	Names() []string
}

// Service archives portfolio documents and serves the archive.
type Service struct {
	docs  DocumentSource
	names NameLister
	repo  Repository
}

// NewService creates a new snapshot Service.
func NewService(docs DocumentSource, names NameLister, repo Repository) *Service {
	return &Service{docs: docs, names: names, repo: repo}
}

// Capture stores the current state of the named portfolio under date.
func (s *Service) Capture(ctx context.Context, name string, date time.Time) error {
	data, err := s.docs.Raw(name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := s.repo.Save(ctx, name, date, data); err != nil {
		return err
	}
	return nil
}

// CaptureAll stores every registered portfolio under date. A failing portfolio
// is logged and skipped; the joined errors are returned.
func (s *Service) CaptureAll(ctx context.Context, date time.Time) error {
	var errs []error
	for _, name := range s.names.Names() {
		if err := s.Capture(ctx, name, date); err != nil {
			slog.Warn("snapshot: capture failed", "name", name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetLatest retrieves the most recent snapshot of the portfolio.
func (s *Service) GetLatest(ctx context.Context, name string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, name)
}

// GetByDate retrieves the snapshot of the portfolio for a specific date.
func (s *Service) GetByDate(ctx context.Context, name string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, name, date)
}

// List retrieves recent snapshots of the portfolio, newest first.
func (s *Service) List(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, name, limit)
}

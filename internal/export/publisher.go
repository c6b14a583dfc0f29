package export

import (
	"context"
	"errors"
	"log/slog"
)

// NameLister lists registered portfolio names.
type NameLister interface {
	Names() []string
}

// Publisher exports every registered portfolio with a single writer.
type Publisher struct {
	svc    *Service
	names  NameLister
	writer TableWriter
}

// NewPublisher creates a Publisher.
func NewPublisher(svc *Service, names NameLister, writer TableWriter) *Publisher {
	return &Publisher{svc: svc, names: names, writer: writer}
}

// Publish exports all portfolios. A failing portfolio does not stop the others;
// the failures are joined into the returned error.
func (p *Publisher) Publish(ctx context.Context) error {
	var errs []error
	for _, name := range p.names.Names() {
		if err := p.svc.Export(ctx, name, p.writer); err != nil {
			slog.Error("portfolio export failed", "portfolio", name, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("portfolio exported", "portfolio", name)
	}
	return errors.Join(errs...)
}

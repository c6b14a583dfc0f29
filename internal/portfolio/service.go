package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mtlprog/folio/internal/domain"
	"github.com/mtlprog/folio/internal/store"
)

// ErrDecode indicates that a portfolio file is not a valid portfolio document.
var ErrDecode = errors.New("could not decode portfolio")

// Resolver maps portfolio names to file paths.
type Resolver interface {
	Resolve(name string) (string, bool)
}

type cachedDocument struct {
	path    string
	modTime time.Time
	size    int64
	doc     domain.Document
}

// Service loads portfolio documents by name and exposes their sections.
// Parsed documents are cached until the file changes or the TTL elapses.
type Service struct {
	store Resolver
	cache *cache.Cache
}

// NewService creates a new portfolio Service. A zero ttl keeps entries until the file changes.
func NewService(store Resolver, ttl time.Duration) *Service {
	return &Service{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Load reads and validates the named portfolio.
func (s *Service) Load(name string) (domain.Document, error) {
	path, ok := s.store.Resolve(name)
	if !ok {
		return domain.Document{}, fmt.Errorf("loading %s: %w", name, store.ErrNotFound)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Document{}, fmt.Errorf("loading %s: %w", name, store.ErrNotFound)
		}
		return domain.Document{}, fmt.Errorf("loading %s: %w", name, err)
	}

	if v, ok := s.cache.Get(name); ok {
		entry := v.(cachedDocument)
		if entry.path == path && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			return entry.doc, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := domain.Decode(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w %s: %w", ErrDecode, name, err)
	}

	s.cache.SetDefault(name, cachedDocument{
		path:    path,
		modTime: info.ModTime(),
		size:    info.Size(),
		doc:     doc,
	})
	return doc, nil
}

// Forget drops any cached copy of the named portfolio.
func (s *Service) Forget(name string) {
	s.cache.Delete(name)
}

// Assets returns the portfolio's assets keyed by ticker.
func (s *Service) Assets(name string) (map[string]domain.Asset, error) {
	doc, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return doc.Assets, nil
}

// Currencies returns the portfolio's fixed-point currency balances keyed by code.
func (s *Service) Currencies(name string) (map[string]int64, error) {
	doc, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return doc.Currencies, nil
}

// Transactions returns the portfolio's transactions in stored (chronological) order.
func (s *Service) Transactions(name string) ([]domain.Transaction, error) {
	doc, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	return doc.Transactions, nil
}

// Raw returns the validated document re-encoded as JSON.
func (s *Service) Raw(name string) (json.RawMessage, error) {
	doc, err := s.Load(name)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	return data, nil
}

package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mtlprog/folio/internal/domain"
)

var (
	ErrInvalidPath     = errors.New("path cannot be empty")
	ErrInvalidName     = errors.New("invalid portfolio name")
	ErrAlreadyExists   = errors.New("portfolio with that name already exists")
	ErrNotFound        = errors.New("portfolio with that name doesn't exist")
	ErrEmptyInput      = errors.New("portfolio file is empty")
	ErrMalformedJSON   = errors.New("portfolio file is not valid JSON")
	ErrIO              = errors.New("portfolio storage failure")
	ErrInvalidRegistry = errors.New("registry must be a map")
)

const fileExt = ".json"

// Store keeps single-file JSON portfolios in a base directory and an in-memory
// name -> path registry in sync with them.
type Store struct {
	mu       sync.RWMutex
	dir      string
	registry map[string]string
}

// New creates a Store rooted at dir with an empty registry.
func New(dir string) (*Store, error) {
	s := &Store{registry: make(map[string]string)}
	if err := s.SetDir(dir); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// SetDir changes the base directory. The path must have a name component:
// "", "." and filesystem roots are rejected.
func (s *Store) SetDir(dir string) error {
	if dir == "" {
		return ErrInvalidPath
	}
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
	return nil
}

// SetRegistry replaces the registry with a copy of r.
func (s *Store) SetRegistry(r map[string]string) error {
	if r == nil {
		return ErrInvalidRegistry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = lo.Assign(r)
	return nil
}

// Registry returns a copy of the registry.
func (s *Store) Registry() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Assign(s.registry)
}

// Names returns the registered portfolio names in ascending order.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := lo.Keys(s.registry)
	s.mu.RUnlock()

	slices.Sort(names)
	return names
}

// ValidateName reports whether name is a non-empty ASCII alphanumeric string.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	for _, r := range name {
		if !isAlnum(r) {
			return fmt.Errorf("%w: %q contains non-alphanumeric characters", ErrInvalidName, name)
		}
	}
	return nil
}

func isAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// Register inserts or overwrites the registry entry for name.
func (s *Store) Register(name, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry[name] = path
}

// EnsureDir creates the base directory and any missing parents.
func (s *Store) EnsureDir() error {
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrIO, dir, err)
	}
	return nil
}

// Resolve returns the file path registered for name.
func (s *Store) Resolve(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.registry[name]
	return path, ok
}

// Reload replaces the registry with one entry per *.json file directly inside
// the base directory, keyed by file stem.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrIO, s.dir, err)
	}

	s.registry = lo.SliceToMap(lo.Filter(entries, func(e fs.DirEntry, _ int) bool {
		return !e.IsDir() && strings.HasSuffix(e.Name(), fileExt) && e.Name() != fileExt
	}), func(e fs.DirEntry) (string, string) {
		return strings.TrimSuffix(e.Name(), fileExt), filepath.Join(s.dir, e.Name())
	})
	return nil
}

// CreateEmpty writes a new portfolio holding the empty document and registers it.
func (s *Store) CreateEmpty(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	data, err := json.Marshal(domain.EmptyDocument())
	if err != nil {
		return fmt.Errorf("encoding empty portfolio: %w", err)
	}

	path := s.pathFor(name)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}
	s.registry[name] = path

	slog.Info("portfolio created", "name", name, "path", path)
	return nil
}

// Upload parses src as JSON, writes its canonical encoding as a new portfolio and registers it.
// A nil src yields ErrEmptyInput.
func (s *Store) Upload(name string, src io.Reader) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if src == nil {
		return ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	content, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("%w: reading upload: %w", ErrIO, err)
	}
	data, err := canonicalJSON(content)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	path := s.pathFor(name)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}
	s.registry[name] = path

	slog.Info("portfolio uploaded", "name", name, "path", path, "bytes", len(data))
	return nil
}

// Remove deletes the portfolio file and its registry entry.
// The entry is kept when the file cannot be deleted.
func (s *Store) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.registry[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: removing %s: %w", ErrIO, path, err)
	}
	delete(s.registry, name)

	slog.Info("portfolio removed", "name", name, "path", path)
	return nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// canonicalJSON decodes a single UTF-8 JSON value and re-encodes it compactly.
// A leading byte-order mark is dropped. Numbers keep their literal form.
func canonicalJSON(content []byte) ([]byte, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, errors.New("content is not valid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset())
	}

	return json.Marshal(v)
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

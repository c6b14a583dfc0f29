package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type mockDocs struct {
	docs map[string]json.RawMessage
}

func (m *mockDocs) Raw(name string) (json.RawMessage, error) {
	d, ok := m.docs[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return d, nil
}

func (m *mockDocs) Names() []string {
	return []string{"Broken", "Main", "Savings"}
}

type mockRepo struct {
	saved     map[string]json.RawMessage
	savedDate time.Time
	saveErr   error
	latest    *Snapshot
	latestErr error
	list      []Snapshot
	listLimit int
}

func (m *mockRepo) Save(_ context.Context, name string, date time.Time, data json.RawMessage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string]json.RawMessage)
	}
	m.saved[name] = data
	m.savedDate = date
	return nil
}

func (m *mockRepo) GetLatest(_ context.Context, _ string) (*Snapshot, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	return m.latest, nil
}

func (m *mockRepo) GetByDate(_ context.Context, _ string, _ time.Time) (*Snapshot, error) {
	return m.GetLatest(context.Background(), "")
}

func (m *mockRepo) List(_ context.Context, _ string, limit int) ([]Snapshot, error) {
	m.listLimit = limit
	return m.list, nil
}

func newDocs() *mockDocs {
	return &mockDocs{docs: map[string]json.RawMessage{
		"Main":    json.RawMessage(`{"assets":{},"transactions":[],"currencies":{"USD":1},"categories":{}}`),
		"Savings": json.RawMessage(`{"assets":{},"transactions":[],"currencies":{},"categories":{}}`),
	}}
}

func TestCapture(t *testing.T) {
	docs := newDocs()
	repo := &mockRepo{}
	svc := NewService(docs, docs, repo)
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	if err := svc.Capture(context.Background(), "Main", date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(repo.saved["Main"]) != string(docs.docs["Main"]) {
		t.Errorf("saved = %s", repo.saved["Main"])
	}
	if !repo.savedDate.Equal(date) {
		t.Errorf("savedDate = %v, want %v", repo.savedDate, date)
	}
}

func TestCaptureUnknownPortfolio(t *testing.T) {
	docs := newDocs()
	repo := &mockRepo{}
	svc := NewService(docs, docs, repo)

	if err := svc.Capture(context.Background(), "Nope", time.Now()); err == nil {
		t.Fatal("expected error for unknown portfolio")
	}
	if len(repo.saved) != 0 {
		t.Errorf("saved = %v, want nothing", repo.saved)
	}
}

func TestCaptureRepoError(t *testing.T) {
	docs := newDocs()
	repo := &mockRepo{saveErr: errors.New("save failed")}
	svc := NewService(docs, docs, repo)

	if err := svc.Capture(context.Background(), "Main", time.Now()); err == nil {
		t.Fatal("expected error from repo save")
	}
}

func TestCaptureAllSkipsFailures(t *testing.T) {
	docs := newDocs()
	repo := &mockRepo{}
	svc := NewService(docs, docs, repo)

	err := svc.CaptureAll(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected joined error for Broken")
	}
	if len(repo.saved) != 2 {
		t.Errorf("saved %d portfolios, want 2", len(repo.saved))
	}
}

func TestGetLatestNotFound(t *testing.T) {
	docs := newDocs()
	svc := NewService(docs, docs, &mockRepo{latestErr: ErrNotFound})

	if _, err := svc.GetLatest(context.Background(), "Main"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetLatest() error = %v, want ErrNotFound", err)
	}
}

func TestListPassesLimit(t *testing.T) {
	docs := newDocs()
	repo := &mockRepo{list: []Snapshot{{ID: 2}, {ID: 1}}}
	svc := NewService(docs, docs, repo)

	got, err := svc.List(context.Background(), "Main", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || repo.listLimit != 7 {
		t.Errorf("List() = %v, limit %d", got, repo.listLimit)
	}
}

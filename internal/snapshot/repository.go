package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is an archived copy of a portfolio document for one day.
type Snapshot struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Save(ctx context.Context, name string, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, name string) (*Snapshot, error)
	GetByDate(ctx context.Context, name string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, name string, limit int) ([]Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, name string, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolio_snapshots (name, snapshot_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (name, snapshot_date)
		 DO UPDATE SET data = $3::jsonb, created_at = NOW()`,
		name, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot of %s: %w", name, err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, name string) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, snapshot_date, data, created_at
		 FROM portfolio_snapshots
		 WHERE name = $1
		 ORDER BY snapshot_date DESC
		 LIMIT 1`, name)
	s, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("getting latest snapshot of %s: %w", name, err)
	}
	return s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, name string, date time.Time) (*Snapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, snapshot_date, data, created_at
		 FROM portfolio_snapshots
		 WHERE name = $1 AND snapshot_date = $2`, name, date)
	s, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot of %s by date: %w", name, err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, snapshot_date, data, created_at
		 FROM portfolio_snapshots
		 WHERE name = $1
		 ORDER BY snapshot_date DESC
		 LIMIT $2`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots of %s: %w", name, err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	if err := row.Scan(&s.ID, &s.Name, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

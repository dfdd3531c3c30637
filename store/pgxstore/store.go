// Package pgxstore persists snapshots in PostgreSQL.
package pgxstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/h15s/gmtea/stats"
	"github.com/h15s/gmtea/store/dbrow"
	"github.com/h15s/gmtea/web/gm"
)

// Sentinel errors for store operations
var (
	ErrInsertFailed = errors.New("snapshot insert failed")
	ErrQueryFailed  = errors.New("snapshot query failed")
)

var insertSnapshotSQL = fmt.Sprintf(
	"INSERT INTO stats_snapshots (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
	strings.Join(dbrow.Columns, ", "),
	placeholders(len(dbrow.Columns)),
)

// Store implements tracker.Store and the web finders using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SaveSnapshot inserts a snapshot. Saving the same id twice is a no-op.
func (s *Store) SaveSnapshot(ctx context.Context, snap stats.Snapshot) error {
	row := dbrow.FromSnapshot(snap)
	if _, err := s.pool.Exec(ctx, insertSnapshotSQL, row.Values()...); err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}
	return nil
}

// Latest returns the most recent snapshot or gm.ErrNoSnapshot
func (s *Store) Latest(ctx context.Context) (stats.Snapshot, error) {
	query, args := NewSnapshotsQuery().Latest().Build()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[dbrow.Snapshot])
	if errors.Is(err, pgx.ErrNoRows) {
		return stats.Snapshot{}, gm.ErrNoSnapshot
	}
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return row.ToSnapshot(), nil
}

// FindSnapshots queries snapshots based on the provided criteria
// Uses LIMIT n+1 technique for efficient pagination without separate count query
func (s *Store) FindSnapshots(ctx context.Context, criteria gm.SnapshotsCriteria) (*gm.SnapshotsPage, error) {
	query, args := NewSnapshotsQuery().ForCriteria(criteria).Build()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	// column names match the dbrow tags
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Snapshot])
	if err != nil {
		return nil, fmt.Errorf("%w: scan failed: %w", ErrQueryFailed, err)
	}

	snapshots := make([]stats.Snapshot, len(collected))
	for i, row := range collected {
		snapshots[i] = row.ToSnapshot()
	}

	// Determine if there are more pages using LIMIT n+1 technique
	hasMore := uint64(len(snapshots)) > criteria.ItemsPerPage()
	if hasMore {
		snapshots = snapshots[:criteria.ItemsPerPage()]
	}

	return &gm.SnapshotsPage{
		Snapshots: snapshots,
		HasMore:   hasMore,
		Number:    criteria.Page,
		Size:      criteria.Size,
	}, nil
}

func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ps, ", ")
}

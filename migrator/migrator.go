// Package migrator applies the embedded schema migrations and builds test databases from them.
package migrator

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/h15s/gmtea/pkg/network"
	"github.com/h15s/gmtea/pkg/pgxdb"
	"github.com/h15s/gmtea/stats"
	"github.com/h15s/gmtea/store/pgxstore"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_demo_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrMigrationHash      = errors.New("migration hash failed")
	ErrSeedFailed         = errors.New("demo seeding failed")
)

// Source returns the embedded migrations
func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations",
	}
}

func migrationSet() *migrate.MigrationSet {
	return &migrate.MigrationSet{TableName: migrationsTableName}
}

func baseHash() (string, error) {
	h, err := sqlmigrator.New(Source(), migrationSet()).Hash()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMigrationHash, err)
	}
	return h, nil
}

// SchemaMigrator applies only database schema migrations
// Used for tests that need schema-only setup
type SchemaMigrator struct{}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator() *SchemaMigrator {
	return &SchemaMigrator{}
}

func (m *SchemaMigrator) Hash() (string, error) {
	h, err := baseHash()
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + h, nil
}

func (m *SchemaMigrator) Migrate(_ context.Context, db *sql.DB, _ pgtestdb.Config) error {
	_, err := applyMigrations(db, migrate.Up)
	return err
}

// SeededMigrator applies schema migrations and inserts one demo snapshot per
// hour ending at until. Used by web tests that need history to page through.
type SeededMigrator struct {
	count int
	until time.Time
}

// NewSeededMigrator creates a migrator that applies schema + seeds demo snapshots
func NewSeededMigrator(count int, until time.Time) *SeededMigrator {
	return &SeededMigrator{count: count, until: until.UTC()}
}

func (m *SeededMigrator) Hash() (string, error) {
	h, err := baseHash()
	if err != nil {
		return "", err
	}
	return seededHashPrefix + h + "_" + strconv.Itoa(m.count) + "_" + strconv.FormatInt(m.until.Unix(), 10), nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if _, err := applyMigrations(db, migrate.Up); err != nil {
		return err
	}
	return m.seed(ctx, conf.URL())
}

func (m *SeededMigrator) seed(ctx context.Context, dbURL string) error {
	slog.InfoContext(ctx, "🌱 Seeding demo snapshots", "count", m.count, "until", m.until)

	pool, err := pgxdb.NewConnection(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSeedFailed, err)
	}
	store, closer := pgxstore.New(pool)
	defer closer()

	for _, snap := range DemoSnapshots(m.count, m.until) {
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("%w: %w", ErrSeedFailed, err)
		}
	}
	return nil
}

// DemoSnapshots returns count snapshots, oldest first, one hour apart, the
// last taken at until. Counters grow with the index.
func DemoSnapshots(count int, until time.Time) []stats.Snapshot {
	snaps := make([]stats.Snapshot, 0, count)
	for i := range count {
		at := until.Add(-time.Duration(count-1-i) * time.Hour)
		head := uint64(100000 + i*360) //nolint:gosec // positive by construction
		from, to := stats.Window(head, network.DefaultLookbackBlocks)

		snap := stats.NewSnapshot(stats.Counts{
			TotalTx:     10 * (i + 1),
			UniqueUsers: 3 * (i + 1),
			DailyUsers:  i%24 + 1,
		}, from, to, at)
		snap.ChainID = network.TeaSepolia.ChainID
		snap.Contract = network.TeaSepolia.Contract
		snap.Endpoint = "#1 demo"
		snaps = append(snaps, snap)
	}
	return snaps
}

// ApplyMigrations applies pending migrations using sql-migrate with the provided pgx pool
// and returns how many were applied.
func ApplyMigrations(pool *pgxpool.Pool) (int, error) {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrate.Up)
}

// RollbackMigrations reverts up to steps migrations, all of them when steps is 0.
func RollbackMigrations(pool *pgxpool.Pool, steps int) (int, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := migrationSet().ExecMax(db, "postgres", Source(), migrate.Down, steps)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return n, nil
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, dir migrate.MigrationDirection) (int, error) {
	n, err := migrationSet().Exec(db, "postgres", Source(), dir)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return n, nil
}

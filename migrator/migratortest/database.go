// Package migratortest creates throwaway PostgreSQL databases from the embedded migrations.
package migratortest

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/migrator"
	"github.com/h15s/gmtea/pkg/pgxdb"
)

// CreateTestDatabase creates an empty, migrated database.
// Returns the connection pool ready for use.
func CreateTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return createTestDatabaseWithMigrator(t, migrator.NewSchemaMigrator())
}

// CreateSeededTestDatabase creates a migrated database holding count demo
// snapshots, one per hour, the last taken at until.
func CreateSeededTestDatabase(t *testing.T, count int, until time.Time) *pgxpool.Pool {
	t.Helper()
	return createTestDatabaseWithMigrator(t, migrator.NewSeededMigrator(count, until))
}

// createTestDatabaseWithMigrator creates a test database using the provided migrator
func createTestDatabaseWithMigrator(t *testing.T, migratorInstance pgtestdb.Migrator) *pgxpool.Pool {
	t.Helper()

	dbConfig := pgtestdb.Custom(t, createTestDatabaseConfig(), migratorInstance)
	t.Logf("testdbconf: %s", dbConfig.URL())

	// Minimal pool size for tests
	pool, err := pgxdb.NewConnection(t.Context(), dbConfig.URL(), pgxdb.WithMaxConns(2))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// createTestDatabaseConfig creates the standard pgtestdb configuration for gmtea tests
func createTestDatabaseConfig() pgtestdb.Config {
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       "gmtea",
		Password:   "gmtea",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}
}

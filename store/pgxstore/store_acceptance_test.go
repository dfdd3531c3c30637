//go:build acceptance

package pgxstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/migrator"
	"github.com/h15s/gmtea/migrator/migratortest"
	"github.com/h15s/gmtea/store/pgxstore"
	"github.com/h15s/gmtea/web/gm"
)

func TestStoreAcceptanceBehavior(t *testing.T) {
	t.Parallel()

	until := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("it reports no snapshot on an empty table", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store, _ := pgxstore.New(migratortest.CreateTestDatabase(t))

		// Act
		_, err := store.Latest(t.Context())

		// Assert
		assert.ErrorIs(t, err, gm.ErrNoSnapshot)
	})

	t.Run("it round-trips a snapshot", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store, _ := pgxstore.New(migratortest.CreateTestDatabase(t))
		snap := migrator.DemoSnapshots(1, until)[0]

		// Act
		require.NoError(t, store.SaveSnapshot(t.Context(), snap))
		require.NoError(t, store.SaveSnapshot(t.Context(), snap), "saving twice is a no-op")
		latest, err := store.Latest(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, snap.ID, latest.ID)
		assert.Equal(t, snap.Counts, latest.Counts)
		assert.Equal(t, snap.Contract, latest.Contract)
		assert.Equal(t, snap.ChainID, latest.ChainID)
		assert.Equal(t, snap.FromBlock, latest.FromBlock)
		assert.Equal(t, snap.ToBlock, latest.ToBlock)
		assert.True(t, snap.TakenAt.Equal(latest.TakenAt))
	})

	t.Run("it pages seeded history newest first", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store, _ := pgxstore.New(migratortest.CreateSeededTestDatabase(t, 30, until))
		demo := migrator.DemoSnapshots(30, until)

		// Act
		first, err := store.FindSnapshots(t.Context(), mustCriteria(t, "", 1, 10))
		require.NoError(t, err)
		last, err := store.FindSnapshots(t.Context(), mustCriteria(t, "", 3, 10))
		require.NoError(t, err)

		// Assert
		require.Len(t, first.Snapshots, 10)
		assert.True(t, first.HasNext())
		assert.Equal(t, demo[29].Counts, first.Snapshots[0].Counts)
		require.Len(t, last.Snapshots, 10)
		assert.False(t, last.HasNext())
		assert.Equal(t, demo[0].Counts, last.Snapshots[9].Counts)
	})

	t.Run("it filters seeded history by day", func(t *testing.T) {
		t.Parallel()

		// Arrange
		store, _ := pgxstore.New(migratortest.CreateSeededTestDatabase(t, 30, until))

		// Act
		page, err := store.FindSnapshots(t.Context(), mustCriteria(t, "2025-03-10", 1, 100))

		// Assert: 00:00 through 12:00 on the 10th
		require.NoError(t, err)
		assert.Len(t, page.Snapshots, 13)
		assert.False(t, page.HasNext())
	})
}

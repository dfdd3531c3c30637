package gm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/web/gm"
)

func TestNewSnapshotsCriteria(t *testing.T) {
	t.Parallel()

	t.Run("when all parameters are valid", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name            string
			date            string
			page            uint64
			perPage         uint64
			expectedPage    uint64
			expectedPerPage uint64
			expectedSkip    uint64
		}{
			{name: "zero values use defaults", expectedPage: 1, expectedPerPage: gm.DefaultPerPage},
			{name: "date with first page", date: "2025-03-10", page: 1, perPage: 25, expectedPage: 1, expectedPerPage: 25},
			{name: "no date with later page", page: 5, perPage: 10, expectedPage: 5, expectedPerPage: 10, expectedSkip: 40},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				// Act
				criteria, err := gm.NewSnapshotsCriteria(tc.date, tc.page, tc.perPage, time.UTC)

				// Assert
				require.NoError(t, err)
				assert.Equal(t, tc.date, criteria.Date.String())
				assert.Equal(t, tc.expectedPage, criteria.Page.Uint64())
				assert.Equal(t, tc.expectedPerPage, criteria.ItemsPerPage())
				assert.Equal(t, tc.expectedSkip, criteria.ItemsToSkip())
			})
		}
	})

	t.Run("when parameters are invalid", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name        string
			date        string
			perPage     uint64
			expectedErr error
		}{
			{name: "malformed date", date: "10/03/2025", expectedErr: gm.ErrInvalidDate},
			{name: "impossible date", date: "2025-02-30", expectedErr: gm.ErrInvalidDate},
			{name: "per_page too large", perPage: gm.MaxPerPage + 1, expectedErr: gm.ErrInvalidPerPage},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				// Act
				_, err := gm.NewSnapshotsCriteria(tc.date, 1, tc.perPage, time.UTC)

				// Assert
				assert.ErrorIs(t, err, tc.expectedErr)
			})
		}
	})
}

func TestDate(t *testing.T) {
	t.Parallel()

	t.Run("it spans one calendar day in its location", func(t *testing.T) {
		t.Parallel()

		// Arrange
		jst := time.FixedZone("JST", 9*60*60)

		// Act
		d, err := gm.ParseDate("2025-03-10", jst)

		// Assert
		require.NoError(t, err)
		assert.True(t, d.Contains(time.Date(2025, 3, 10, 0, 0, 0, 0, jst)))
		assert.True(t, d.Contains(time.Date(2025, 3, 10, 14, 59, 0, 0, time.UTC)))
		assert.False(t, d.Contains(time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)), "midnight in Tokyo starts the next day")
		assert.False(t, d.Contains(time.Date(2025, 3, 9, 23, 59, 59, 0, jst)))
	})

	t.Run("the zero date contains everything", func(t *testing.T) {
		t.Parallel()

		// Act
		d, err := gm.ParseDate("", time.UTC)

		// Assert
		require.NoError(t, err)
		assert.True(t, d.IsZero())
		assert.True(t, d.Contains(time.Unix(0, 0)))
		assert.Empty(t, d.String())
	})
}

package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/pkg/clock"
)

func TestSystemClock(t *testing.T) {
	t.Parallel()

	t.Run("it reads the wall clock in its location", func(t *testing.T) {
		t.Parallel()

		// Arrange
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)
		c := clock.SystemClock{Location: tokyo}

		// Act
		now := c.Now()

		// Assert
		assert.Equal(t, tokyo, now.Location())
		assert.WithinDuration(t, time.Now(), now, time.Second)
	})

	t.Run("it fires After once the duration passes", func(t *testing.T) {
		t.Parallel()

		select {
		case <-clock.SystemClock{}.After(time.Millisecond):
		case <-time.After(time.Second):
			t.Fatal("After did not fire")
		}
	})
}

func TestLoadLocation(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "Local"} {
		loc, err := clock.LoadLocation(name)
		require.NoError(t, err)
		assert.Equal(t, time.Local, loc, "name %q", name)
	}

	loc, err := clock.LoadLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = clock.LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

package api_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/web/api"
	"github.com/h15s/gmtea/web/gm"
)

func TestAPIErrorHandling(t *testing.T) {
	t.Parallel()

	t.Run("it exposes the cause for BadRequest", func(t *testing.T) {
		t.Parallel()

		// Arrange
		validationErr := errors.New("invalid date parameter: date must be YYYY-MM-DD")

		// Act
		apiErr := api.BadRequest(validationErr)

		// Assert
		assert.Equal(t, http.StatusBadRequest, apiErr.HTTPCode())
		assert.Equal(t, "invalid date parameter: date must be YYYY-MM-DD", apiErr.Error())
		assert.Equal(t, validationErr, apiErr.Cause())
	})

	t.Run("it hides the cause for InternalServerError", func(t *testing.T) {
		t.Parallel()

		// Arrange
		internalErr := errors.New("snapshot query failed: password authentication failed for user 'gmtea'")

		// Act
		apiErr := api.InternalServerError(internalErr)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPCode())
		assert.Equal(t, "Internal Server Error", apiErr.Error())
		assert.Equal(t, internalErr, apiErr.Cause(), "cause stays available for logging")
	})

	t.Run("it uses the given message for ServiceUnavailable", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cause := errors.New("dial tcp: connection refused")

		// Act
		apiErr := api.ServiceUnavailable(cause, "stats are not available yet")

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPCode())
		assert.Equal(t, "stats are not available yet", apiErr.Error())
		assert.ErrorIs(t, apiErr, cause)
	})

	t.Run("it reports upstream failures as BadGateway", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cause := errors.New("nonce too low")

		// Act
		apiErr := api.BadGateway(cause, "Error: nonce too low")

		// Assert
		assert.Equal(t, http.StatusBadGateway, apiErr.HTTPCode())
		assert.Equal(t, "Error: nonce too low", apiErr.Error())
		assert.ErrorIs(t, apiErr, cause)
	})

	t.Run("it classifies a missing snapshot as ServiceUnavailable", func(t *testing.T) {
		t.Parallel()

		// Act
		apiErr := api.Wrap(fmt.Errorf("latest: %w", gm.ErrNoSnapshot))

		// Assert
		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPCode())
		assert.ErrorIs(t, apiErr, gm.ErrNoSnapshot)
	})

	t.Run("it classifies unknown errors as InternalServerError", func(t *testing.T) {
		t.Parallel()

		// Arrange
		unknownErr := errors.New("some random error")

		// Act
		apiErr := api.Wrap(unknownErr)

		// Assert
		require.NotNil(t, apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPCode())
		assert.Equal(t, unknownErr, apiErr.Cause())
	})

	t.Run("it marshals code and message only", func(t *testing.T) {
		t.Parallel()

		// Arrange
		apiErr := api.BadRequest(errors.New("invalid per_page parameter: per_page must be between 1 and 100"))

		// Act
		jsonBytes, err := json.Marshal(apiErr)

		// Assert
		require.NoError(t, err)
		assert.JSONEq(t, `{"code":400,"message":"invalid per_page parameter: per_page must be between 1 and 100"}`, string(jsonBytes))
	})

	t.Run("it does not double-wrap API errors", func(t *testing.T) {
		t.Parallel()

		// Arrange
		apiErr := api.BadRequest(errors.New("some validation error"))

		// Act
		wrapped := api.Wrap(fmt.Errorf("handler: %w", apiErr))

		// Assert
		assert.Same(t, apiErr, wrapped)
	})

	t.Run("it returns nil when wrapping a nil error", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, api.Wrap(nil))
	})
}

package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSQLiteConflictError(t *testing.T) {
	t.Parallel()

	assert.False(t, IsSQLiteConflictError(nil))
	assert.True(t, IsSQLiteConflictError(errors.New("SQLITE_BUSY: database busy")))
	assert.True(t, IsSQLiteConflictError(fmt.Errorf("insert: %w", errors.New("database is locked"))))
	assert.False(t, IsSQLiteConflictError(errors.New("constraint failed")))
}

func TestRetryOnConflict(t *testing.T) {
	t.Parallel()

	t.Run("retries busy errors", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), "test", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns other errors at once", func(t *testing.T) {
		calls := 0
		boom := errors.New("constraint failed")
		err := RetryOnConflict(context.Background(), "test", func(context.Context) error {
			calls++
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after bounded retries", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), "test", func(context.Context) error {
			calls++
			return errors.New("SQLITE_BUSY")
		})
		require.Error(t, err)
		assert.True(t, IsSQLiteConflictError(err))
		assert.Equal(t, conflictRetries+1, calls)
	})
}

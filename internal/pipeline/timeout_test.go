package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmbooks/receipt_pipeline/internal/domain"
	"github.com/farmbooks/receipt_pipeline/internal/pipeline"
)

func TestRunWithTimeout_Success(t *testing.T) {
	t.Parallel()

	got, err := pipeline.RunWithTimeout(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestRunWithTimeout_ErrorPassthrough(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("backend exploded")

	_, err := pipeline.RunWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	require.ErrorIs(t, err, wantErr)
}

func TestRunWithTimeout_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	started := time.Now()

	_, err := pipeline.RunWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (string, error) {
		time.Sleep(time.Second)
		return "too late", nil
	})

	require.ErrorIs(t, err, domain.ErrOCRTimeout)
	assert.Less(t, time.Since(started), 500*time.Millisecond, "caller must not wait for the abandoned call")
}

func TestRunWithTimeout_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.RunWithTimeout(ctx, time.Second, func(ctx context.Context) (string, error) {
		time.Sleep(time.Second)
		return "", nil
	})

	require.ErrorIs(t, err, context.Canceled)
}

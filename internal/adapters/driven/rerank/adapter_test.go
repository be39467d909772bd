package rerank

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

func TestNew_Validation(t *testing.T) {
	_, err := New("cross-encoder-v1", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))

	_, err = New("", func(context.Context, string, string) (float64, error) { return 0, nil })
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
}

func TestAdapter_Score(t *testing.T) {
	a, err := New("cross-encoder-v1", func(_ context.Context, query, passage string) (float64, error) {
		if strings.Contains(passage, query) {
			return 0.9, nil
		}
		return 0.1, nil
	})
	require.NoError(t, err)

	score, err := a.Score(context.Background(), "button", "a button element")
	require.NoError(t, err)
	assert.Equal(t, 0.9, score)

	assert.Equal(t, "cross-encoder-v1", a.ModelName())
}

func TestAdapter_WrapsProviderFailure(t *testing.T) {
	a, err := New("cross-encoder-v1", func(context.Context, string, string) (float64, error) {
		return 0, errors.New("upstream 503")
	})
	require.NoError(t, err)

	_, err = a.Score(context.Background(), "q", "p")
	require.Error(t, err)

	var backendErr *domain.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "reranker", backendErr.Backend)
	assert.Equal(t, "score", backendErr.Op)
}

func TestAdapter_TimeoutPropagates(t *testing.T) {
	a, err := New("cross-encoder-v1",
		func(ctx context.Context, _, _ string) (float64, error) {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Second):
				return 1, nil
			}
		},
		WithTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = a.Score(context.Background(), "q", "p")
	require.Error(t, err)

	var backendErr *domain.BackendError
	assert.True(t, errors.As(err, &backendErr))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestAdapter_RateLimitHonoursCancellation(t *testing.T) {
	a, err := New("cross-encoder-v1",
		func(context.Context, string, string) (float64, error) { return 1, nil },
		WithRateLimit(0.001, 1))
	require.NoError(t, err)

	// First call consumes the burst.
	_, err = a.Score(context.Background(), "q", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = a.Score(ctx, "q", "p")
	require.Error(t, err)

	var backendErr *domain.BackendError
	assert.True(t, errors.As(err, &backendErr))
}

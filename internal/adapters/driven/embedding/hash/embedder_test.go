package hash

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/retrieva/internal/core/domain"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(0)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))

	e, err := New(64)
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dimensions())
}

func TestEmbedder_Deterministic(t *testing.T) {
	e, err := New(DefaultDimensions)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := e.Embed(ctx, "<button>Sign in</button>")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "<button>Sign in</button>")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmbedder_Normalised(t *testing.T) {
	e, err := New(DefaultDimensions)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "form input submit button form")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestEmbedder_SharedTermsIncreaseSimilarity(t *testing.T) {
	e, err := New(DefaultDimensions)
	require.NoError(t, err)
	ctx := context.Background()

	query, err := e.Embed(ctx, "login button")
	require.NoError(t, err)
	related, err := e.Embed(ctx, "login button on the form")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "table of prices")
	require.NoError(t, err)

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestEmbedder_EmptyTextIsZeroVector(t *testing.T) {
	e, err := New(16)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, 16)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedder_EmbedBatch(t *testing.T) {
	e, err := New(32)
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"one", "two", "one"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[2])
	assert.NotEqual(t, vecs[0], vecs[1])
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

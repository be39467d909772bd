// Package rerank adapts an external pairwise scoring model to the
// reranker port. The actual model call is injected as a ScoreFunc so the
// adapter stays provider-agnostic; it contributes rate limiting, per-call
// timeouts and uniform error wrapping.
package rerank

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/retrieva/internal/core/domain"
	"github.com/custodia-labs/retrieva/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.Reranker = (*Adapter)(nil)

// DefaultTimeout bounds a single scoring call.
const DefaultTimeout = 10 * time.Second

// ScoreFunc computes the pairwise relevance of passage for query.
// Implementations typically call a hosted cross-encoder.
type ScoreFunc func(ctx context.Context, query, passage string) (float64, error)

// Adapter wraps a ScoreFunc with rate limiting and timeouts, and surfaces
// provider failures as *domain.BackendError so callers can degrade.
type Adapter struct {
	score   ScoreFunc
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRateLimit caps scoring calls at rps per second with the given
// burst. Zero or negative rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *Adapter) {
		if rps > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// New creates a reranker adapter around the given scoring function.
// The model name is reported through ModelName for logging.
func New(model string, score ScoreFunc, opts ...Option) (*Adapter, error) {
	if score == nil {
		return nil, fmt.Errorf("%w: score function is required", domain.ErrInvalidConfiguration)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: model name is required", domain.ErrInvalidConfiguration)
	}

	a := &Adapter{
		score:   score,
		model:   model,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Score returns the pairwise relevance of passage for query.
func (a *Adapter) Score(ctx context.Context, query, passage string) (float64, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return 0, &domain.BackendError{Backend: "reranker", Op: "score", Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	score, err := a.score(ctx, query, passage)
	if err != nil {
		return 0, &domain.BackendError{Backend: "reranker", Op: "score", Err: err}
	}
	return score, nil
}

// ModelName returns the scorer's model identifier.
func (a *Adapter) ModelName() string {
	return a.model
}

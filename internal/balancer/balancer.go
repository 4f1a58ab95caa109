package balancer

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/modelmux/modelmux/internal/domain"
)

// ErrNoCandidates is returned when Pick is called with an empty slice.
var ErrNoCandidates = errors.New("balancer: no candidate providers")

// Balancer selects one provider from a candidate list by weighted random
// draw. It is stateless apart from its random source and safe for
// concurrent use.
type Balancer struct {
	randFloat func() float64
	logger    *zerolog.Logger
}

// Option configures a Balancer.
type Option func(*Balancer)

// WithRand overrides the random source. The function must return values
// in [0, 1). Used by tests for deterministic draws.
func WithRand(fn func() float64) Option {
	return func(b *Balancer) {
		b.randFloat = fn
	}
}

// New creates a Balancer.
func New(logger *zerolog.Logger, opts ...Option) *Balancer {
	b := &Balancer{
		randFloat: randFloat,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Pick draws one provider, with probability proportional to each
// candidate's weight. A single candidate is returned directly.
func (b *Balancer) Pick(candidates []domain.Provider) (domain.Provider, error) {
	if len(candidates) == 0 {
		return domain.Provider{}, ErrNoCandidates
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	weights := make([]float64, len(candidates))
	total := 0.0
	for i, p := range candidates {
		weights[i] = Weight(p)
		total += weights[i]
	}

	roll := b.randFloat() * total
	for i, p := range candidates {
		if roll < weights[i] {
			b.logPick(p, weights[i], total)
			return p, nil
		}
		roll -= weights[i]
	}

	// Floating point accumulation can leave a sliver past the last
	// candidate; the draw then lands on it.
	last := candidates[len(candidates)-1]
	b.logPick(last, weights[len(weights)-1], total)
	return last, nil
}

func (b *Balancer) logPick(p domain.Provider, weight, total float64) {
	if b.logger == nil {
		return
	}
	b.logger.Debug().
		Str("provider", p.ID).
		Float64("weight", weight).
		Float64("total_weight", total).
		Msg("weighted pick")
}

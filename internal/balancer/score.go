// Package balancer provides health-weighted random provider selection
// for modelmux.
//
// Each candidate gets a weight of healthScore x (priority / 1000), where
// healthScore summarizes the provider's last health snapshot into [0.1, 1.0].
// Selection is a single weighted-random draw over those weights.
package balancer

import (
	"github.com/modelmux/modelmux/internal/domain"
)

// Score bounds and factors.
const (
	// MinScore is the floor applied to the overall score and to each
	// multiplicative factor, so no provider is ever weighted to zero.
	MinScore = 0.1

	// MaxScore is the ceiling of the health score.
	MaxScore = 1.0

	// UnknownScore is used when a provider has no health snapshot yet.
	UnknownScore = 0.5

	statusFactorHealthy   = 1.0
	statusFactorDegraded  = 0.7
	statusFactorUnhealthy = 0.3

	// responseTimeCeilingMS is the response time at which the latency
	// factor bottoms out.
	responseTimeCeilingMS = 10_000.0
)

// HealthScore converts a health snapshot into a [0.1, 1.0] weight factor.
// A nil snapshot (provider never probed) scores UnknownScore.
func HealthScore(h *domain.HealthSnapshot) float64 {
	if h == nil {
		return UnknownScore
	}

	score := MaxScore

	switch h.Status {
	case domain.HealthHealthy:
		score *= statusFactorHealthy
	case domain.HealthDegraded:
		score *= statusFactorDegraded
	case domain.HealthUnhealthy:
		score *= statusFactorUnhealthy
	default:
		return UnknownScore
	}

	score *= floor(1 - clamp01(h.ErrorRate))
	score *= floor(1 - min(1, max(0, h.ResponseTimeMS)/responseTimeCeilingMS))
	score *= floor(clamp01(h.Uptime))

	return floor(min(score, MaxScore))
}

// Weight computes the selection weight for a provider.
func Weight(p domain.Provider) float64 {
	priority := p.Priority
	if priority < domain.MinPriority {
		priority = domain.MinPriority
	}
	if priority > domain.MaxPriority {
		priority = domain.MaxPriority
	}
	return HealthScore(p.LastHealth) * float64(priority) / float64(domain.MaxPriority)
}

func floor(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

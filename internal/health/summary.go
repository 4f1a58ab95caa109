package health

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/modelmux/modelmux/internal/domain"
)

// ProviderHealth is one provider's line in an organization summary.
type ProviderHealth struct {
	ProviderID     string             `json:"provider_id"`
	Name           string             `json:"name"`
	Status         domain.HealthState `json:"status"`
	ResponseTimeMS float64            `json:"response_time_ms"`
	ErrorRate      float64            `json:"error_rate"`
	Uptime         float64            `json:"uptime"`
	CheckedAt      time.Time          `json:"checked_at"`
}

// OrgSummary aggregates the health of an organization's active providers.
// The averages cover every provider line, including those reporting from a
// persisted snapshot or with no observations at all.
type OrgSummary struct {
	OrgID             string             `json:"org_id"`
	Overall           domain.HealthState `json:"overall"`
	Total             int                `json:"total"`
	Healthy           int                `json:"healthy"`
	Degraded          int                `json:"degraded"`
	Unhealthy         int                `json:"unhealthy"`
	AvgResponseTimeMS float64            `json:"avg_response_time_ms"`
	AvgUptime         float64            `json:"avg_uptime"`
	Providers         []ProviderHealth   `json:"providers"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// OrgSummary reports per-provider and overall health for an organization.
// Fresh cached probe results are preferred; a provider whose result has
// expired falls back to its persisted snapshot, and a provider with no
// observations at all is counted as degraded rather than assumed healthy.
//
// Overall state: unhealthy when more than half the providers are
// unhealthy, degraded when any provider is unhealthy or more than 30% are
// degraded, healthy otherwise.
func (m *Monitor) OrgSummary(ctx context.Context, orgID string) (*OrgSummary, error) {
	providers, err := m.store.ListActiveProviders(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("health: list providers for summary: %w", err)
	}

	lines := lo.Map(providers, func(p domain.Provider, _ int) ProviderHealth {
		return m.providerLine(p)
	})

	summary := &OrgSummary{
		OrgID:       orgID,
		Total:       len(lines),
		Providers:   lines,
		GeneratedAt: m.now(),
	}
	var sumResponseTime, sumUptime float64
	for _, line := range lines {
		sumResponseTime += line.ResponseTimeMS
		sumUptime += line.Uptime
		switch line.Status {
		case domain.HealthHealthy:
			summary.Healthy++
		case domain.HealthDegraded:
			summary.Degraded++
		case domain.HealthUnhealthy:
			summary.Unhealthy++
		}
	}

	n := len(lines)
	if n > 0 {
		summary.AvgResponseTimeMS = sumResponseTime / float64(n)
		summary.AvgUptime = sumUptime / float64(n)
	}
	switch {
	case n == 0:
		summary.Overall = domain.HealthHealthy
	case summary.Unhealthy*2 > n:
		summary.Overall = domain.HealthUnhealthy
	case summary.Unhealthy > 0 || summary.Degraded*10 > n*3:
		summary.Overall = domain.HealthDegraded
	default:
		summary.Overall = domain.HealthHealthy
	}
	return summary, nil
}

func (m *Monitor) providerLine(p domain.Provider) ProviderHealth {
	line := ProviderHealth{
		ProviderID: p.ID,
		Name:       p.Name,
	}

	if res, ok := m.results.Get(p.ID); ok {
		line.Status = res.Status
		line.ResponseTimeMS = res.ResponseTimeMS
		line.ErrorRate = res.ErrorRate
		line.Uptime = res.Uptime
		line.CheckedAt = res.Timestamp
		return line
	}

	if p.LastHealth != nil {
		line.Status = p.LastHealth.Status
		line.ResponseTimeMS = p.LastHealth.ResponseTimeMS
		line.ErrorRate = p.LastHealth.ErrorRate
		line.Uptime = p.LastHealth.Uptime
		line.CheckedAt = p.LastHealth.CheckedAt
		return line
	}

	line.Status = domain.HealthDegraded
	return line
}

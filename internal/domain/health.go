package domain

import "time"

// HealthCheckResult is the outcome of a single connectivity probe.
// Results are ephemeral: cached briefly for the organization health
// summary, folded into rolling statistics, and persisted as the
// provider's health snapshot.
type HealthCheckResult struct {
	ProviderID     string      `json:"provider_id"`
	OrgID          string      `json:"org_id"`
	Status         HealthState `json:"status"`
	ResponseTimeMS float64     `json:"response_time_ms"`
	ErrorRate      float64     `json:"error_rate"`
	Uptime         float64     `json:"uptime"`
	Timestamp      time.Time   `json:"timestamp"`
	Error          string      `json:"error,omitempty"`
}

// Snapshot converts the result into a persistable health snapshot.
func (r HealthCheckResult) Snapshot() *HealthSnapshot {
	return &HealthSnapshot{
		Status:         r.Status,
		ResponseTimeMS: r.ResponseTimeMS,
		ErrorRate:      r.ErrorRate,
		Uptime:         r.Uptime,
		CheckedAt:      r.Timestamp,
	}
}

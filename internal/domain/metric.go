package domain

import "time"

// MetricRecord is a persisted time-series row produced by the metrics
// aggregator from a provider's rolling health statistics.
type MetricRecord struct {
	ID             string    `json:"id"`
	ProviderID     string    `json:"provider_id"`
	OrgID          string    `json:"org_id"`
	Timestamp      time.Time `json:"timestamp"`
	TotalRequests  int64     `json:"total_requests"`
	SuccessCount   int64     `json:"success_count"`
	FailureCount   int64     `json:"failure_count"`
	AvgResponseMS  float64   `json:"avg_response_ms"`
	ErrorRate      float64   `json:"error_rate"`
	ThroughputRPM  float64   `json:"throughput_rpm"`
	// Extra carries supplementary fields (uptime, consecutive failures,
	// last success/failure times) without widening the schema.
	Extra map[string]any `json:"extra,omitempty"`
}

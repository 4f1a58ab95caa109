package health

import (
	"time"

	"github.com/modelmux/modelmux/internal/domain"
)

// Classification thresholds. A provider is degraded when any degraded
// threshold is crossed and unhealthy when any unhealthy threshold is.
const (
	degradedResponseTimeMS  = 5000
	unhealthyResponseTimeMS = 15000
	degradedErrorRate       = 0.10
	unhealthyErrorRate      = 0.25
	degradedUptime          = 0.95
	unhealthyUptime         = 0.90
)

// Stats accumulates rolling probe statistics for one provider. Response
// time is a running average over successful probes only; failed probes
// have no meaningful latency. The zero value is ready to use.
//
// Stats is not safe for concurrent use; the monitor serializes access.
type Stats struct {
	Total               int
	Successes           int
	Failures            int
	ConsecutiveFailures int
	AvgResponseTimeMS   float64
	FirstProbe          time.Time
	LastSuccess         time.Time
	LastFailure         time.Time
}

// RecordSuccess folds a successful probe into the statistics.
func (s *Stats) RecordSuccess(responseTimeMS float64, at time.Time) {
	if s.FirstProbe.IsZero() {
		s.FirstProbe = at
	}
	s.Total++
	s.Successes++
	s.ConsecutiveFailures = 0
	s.LastSuccess = at
	s.AvgResponseTimeMS += (responseTimeMS - s.AvgResponseTimeMS) / float64(s.Successes)
}

// RecordFailure folds a failed probe into the statistics.
func (s *Stats) RecordFailure(at time.Time) {
	if s.FirstProbe.IsZero() {
		s.FirstProbe = at
	}
	s.Total++
	s.Failures++
	s.ConsecutiveFailures++
	s.LastFailure = at
}

// ErrorRate returns the fraction of probes that failed.
func (s *Stats) ErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Total)
}

// Uptime returns the fraction of probes that succeeded. With no probes
// recorded it reports 1, matching the optimistic default for a provider
// that has never been observed failing.
func (s *Stats) Uptime() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.Successes) / float64(s.Total)
}

// Classify maps the rolling statistics to a health state.
func (s *Stats) Classify() domain.HealthState {
	rt := s.AvgResponseTimeMS
	er := s.ErrorRate()
	up := s.Uptime()

	switch {
	case rt > unhealthyResponseTimeMS || er > unhealthyErrorRate || up < unhealthyUptime:
		return domain.HealthUnhealthy
	case rt > degradedResponseTimeMS || er > degradedErrorRate || up < degradedUptime:
		return domain.HealthDegraded
	default:
		return domain.HealthHealthy
	}
}

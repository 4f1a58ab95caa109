package config

import (
	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"github.com/modelmux/modelmux/internal/domain"
)

var knownKinds = []string{
	string(domain.KindAnthropic),
	string(domain.KindOpenAI),
	string(domain.KindAzure),
	string(domain.KindBedrock),
	string(domain.KindVertex),
	string(domain.KindOllama),
}

// Validate checks the configuration and reports every problem it finds.
func Validate(cfg *Config) error {
	verr := &ValidationError{}

	if len(cfg.Providers) == 0 {
		verr.Addf("at least one provider must be configured")
	}

	seen := make(map[string]bool, len(cfg.Providers))
	for i := range cfg.Providers {
		validateProvider(verr, i, &cfg.Providers[i], seen)
	}

	validateSchedule(verr, "metrics.snapshot_schedule", cfg.Metrics.SnapshotSchedule)
	validateSchedule(verr, "metrics.prune_schedule", cfg.Metrics.PruneSchedule)

	if cfg.Breaker.FailureThreshold < 0 {
		verr.Addf("breaker.failure_threshold must not be negative, got %d", cfg.Breaker.FailureThreshold)
	}

	return verr.ToError()
}

func validateProvider(verr *ValidationError, i int, p *ProviderSeed, seen map[string]bool) {
	if p.ID == "" {
		verr.Addf("provider[%d]: id is required", i)
	} else if seen[p.ID] {
		verr.Addf("provider[%d]: duplicate id %q", i, p.ID)
	} else {
		seen[p.ID] = true
	}

	if p.OrgID == "" {
		verr.Addf("provider[%d]: org_id is required", i)
	}
	if p.Name == "" {
		verr.Addf("provider[%d]: name is required", i)
	}
	if !lo.Contains(knownKinds, p.Kind) {
		verr.Addf("provider[%d]: unknown kind %q", i, p.Kind)
	}
	if p.Priority < domain.MinPriority || p.Priority > domain.MaxPriority {
		verr.Addf("provider[%d]: priority must be %d-%d, got %d",
			i, domain.MinPriority, domain.MaxPriority, p.Priority)
	}
	if p.CostMultiplier < 0 {
		verr.Addf("provider[%d]: cost_multiplier must not be negative", i)
	}
	if p.TimeoutMS < 0 {
		verr.Addf("provider[%d]: timeout_ms must not be negative", i)
	}
}

func validateSchedule(verr *ValidationError, field, expr string) {
	if expr == "" {
		return
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		verr.Addf("%s: invalid cron expression %q: %v", field, expr, err)
	}
}

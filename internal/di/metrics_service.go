package di

import (
	"github.com/samber/do/v2"
	"github.com/samber/lo"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/metrics"
)

// AggregatorService wraps the metrics aggregator.
type AggregatorService struct {
	Aggregator *metrics.Aggregator
}

// NewAggregator assembles the aggregator. Its snapshot targets are the
// configured providers, so membership follows the config without extra
// bookkeeping.
func NewAggregator(i do.Injector) (*AggregatorService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	metricStoreSvc := do.MustInvoke[*MetricStoreService](i)
	monitorSvc := do.MustInvoke[*MonitorService](i)

	targets := func() []metrics.Target {
		return lo.Map(cfgSvc.Get().Providers, func(p config.ProviderSeed, _ int) metrics.Target {
			return metrics.Target{ProviderID: p.ID, OrgID: p.OrgID}
		})
	}

	cfg := cfgSvc.Get().Metrics
	opts := []metrics.Option{
		metrics.WithSchedules(cfg.SnapshotSchedule, cfg.PruneSchedule),
	}
	if retention, ok := cfg.GetRetentionOption().Get(); ok {
		opts = append(opts, metrics.WithRetention(retention))
	}

	agg := metrics.NewAggregator(
		metricStoreSvc.Metrics,
		monitorSvc.Monitor,
		targets,
		logSvc.Logger,
		opts...,
	)
	return &AggregatorService{Aggregator: agg}, nil
}

// Shutdown implements do.Shutdowner.
func (s *AggregatorService) Shutdown() error {
	s.Aggregator.Stop()
	return nil
}

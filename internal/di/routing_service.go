package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"

	"github.com/modelmux/modelmux/internal/balancer"
	"github.com/modelmux/modelmux/internal/breaker"
	"github.com/modelmux/modelmux/internal/routing"
	"github.com/modelmux/modelmux/internal/telemetry"
)

// BreakerService wraps the circuit breaker manager.
type BreakerService struct {
	Manager *breaker.Manager
}

// NewBreakers creates the breaker manager from configuration, with
// transitions feeding the telemetry counters.
func NewBreakers(i do.Injector) (*BreakerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	telSvc := do.MustInvoke[*TelemetryService](i)

	opts := []breaker.Option{
		breaker.WithStateChange(func(_ string, _, to breaker.State) {
			telSvc.Metrics.BreakerTransitions.WithLabelValues(to.String()).Inc()
		}),
	}
	cfg := cfgSvc.Get().Breaker
	if cfg.FailureThreshold > 0 {
		opts = append(opts, breaker.WithThreshold(cfg.FailureThreshold))
	}
	if window, ok := cfg.GetOpenWindowOption().Get(); ok {
		opts = append(opts, breaker.WithOpenWindow(window))
	}

	return &BreakerService{Manager: breaker.NewManager(&logSvc.Logger, opts...)}, nil
}

// RuleCacheService wraps the per-organization rule cache.
type RuleCacheService struct {
	Rules *routing.RuleCache
}

// NewRuleCache creates the rule cache over the provider store.
func NewRuleCache(i do.Injector) (*RuleCacheService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	storeSvc := do.MustInvoke[*StoreService](i)

	ttl := cfgSvc.Get().Cache.GetRuleTTLOption().OrElse(routing.DefaultRuleTTL)
	rules, err := routing.NewRuleCache(storeSvc.Providers, ttl, logSvc.Logger)
	if err != nil {
		return nil, err
	}
	return &RuleCacheService{Rules: rules}, nil
}

// Shutdown implements do.Shutdowner.
func (s *RuleCacheService) Shutdown() error {
	s.Rules.Close()
	return nil
}

// EngineService wraps the routing engine.
type EngineService struct {
	Engine *routing.Engine
}

// NewEngine assembles the routing engine.
func NewEngine(i do.Injector) (*EngineService, error) {
	logSvc := do.MustInvoke[*LoggerService](i)
	storeSvc := do.MustInvoke[*StoreService](i)
	ruleSvc := do.MustInvoke[*RuleCacheService](i)
	breakerSvc := do.MustInvoke[*BreakerService](i)
	telSvc := do.MustInvoke[*TelemetryService](i)

	lb := balancer.New(&logSvc.Logger)
	engine := routing.NewEngine(
		storeSvc.Providers,
		ruleSvc.Rules,
		breakerSvc.Manager,
		lb,
		telSvc.Metrics,
		logSvc.Logger,
	)
	return &EngineService{Engine: engine}, nil
}

// TelemetryService wraps the Prometheus registry and collectors.
type TelemetryService struct {
	Registry *prometheus.Registry
	Metrics  *telemetry.Metrics
}

// NewTelemetry creates the registry and registers the collectors.
func NewTelemetry(do.Injector) (*TelemetryService, error) {
	reg := prometheus.NewRegistry()
	return &TelemetryService{
		Registry: reg,
		Metrics:  telemetry.New(reg),
	}, nil
}

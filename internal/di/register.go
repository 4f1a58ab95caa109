package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
//  1. Config (no dependencies)
//  2. Logger (depends on Config)
//  3. Telemetry (no dependencies)
//  4. Store (depends on Config, Logger)
//  5. MetricStore (depends on Config)
//  6. Breakers (depends on Config, Logger, Telemetry)
//  7. RuleCache (depends on Config, Logger, Store)
//  8. Engine (depends on Store, RuleCache, Breakers, Telemetry)
//  9. EventBus (depends on Logger)
//  10. Monitor (depends on Config, Store, Breakers, EventBus, Telemetry)
//  11. Aggregator (depends on Config, MetricStore, Monitor)
//  12. Server (depends on Config, Engine, Monitor, Telemetry).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewTelemetry)
	do.Provide(i, NewStore)
	do.Provide(i, NewMetricStore)
	do.Provide(i, NewBreakers)
	do.Provide(i, NewRuleCache)
	do.Provide(i, NewEngine)
	do.Provide(i, NewEventBus)
	do.Provide(i, NewMonitor)
	do.Provide(i, NewAggregator)
	do.Provide(i, NewHTTPServer)
}

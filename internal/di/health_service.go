package di

import (
	"github.com/samber/do/v2"

	"github.com/modelmux/modelmux/internal/adapter"
	"github.com/modelmux/modelmux/internal/events"
	"github.com/modelmux/modelmux/internal/health"
)

// EventBusService wraps the in-process event bus.
type EventBusService struct {
	Bus *events.Bus
}

// NewEventBus creates the event bus.
func NewEventBus(i do.Injector) (*EventBusService, error) {
	logSvc := do.MustInvoke[*LoggerService](i)
	return &EventBusService{Bus: events.NewBus(&logSvc.Logger)}, nil
}

// Shutdown implements do.Shutdowner.
func (s *EventBusService) Shutdown() error {
	s.Bus.Close()
	return nil
}

// MonitorService wraps the health monitor.
type MonitorService struct {
	Monitor *health.Monitor
}

// NewMonitor assembles the health monitor over the HTTP probe adapter.
func NewMonitor(i do.Injector) (*MonitorService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	storeSvc := do.MustInvoke[*StoreService](i)
	breakerSvc := do.MustInvoke[*BreakerService](i)
	busSvc := do.MustInvoke[*EventBusService](i)
	telSvc := do.MustInvoke[*TelemetryService](i)

	var opts []health.Option
	cfg := cfgSvc.Get().Health
	if interval, ok := cfg.GetIntervalOption().Get(); ok {
		opts = append(opts, health.WithInterval(interval))
	}
	if timeout, ok := cfg.GetProbeTimeoutOption().Get(); ok {
		opts = append(opts, health.WithProbeTimeout(timeout))
	}

	monitor, err := health.NewMonitor(
		storeSvc.Providers,
		adapter.NewHTTPAdapter(nil),
		breakerSvc.Manager,
		busSvc.Bus,
		telSvc.Metrics,
		logSvc.Logger,
		opts...,
	)
	if err != nil {
		return nil, err
	}
	return &MonitorService{Monitor: monitor}, nil
}

// Shutdown implements do.Shutdowner.
func (s *MonitorService) Shutdown() error {
	s.Monitor.Stop()
	return nil
}

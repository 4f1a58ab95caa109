package di

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/modelmux/modelmux/internal/server"
)

// ServerService wraps the status HTTP server.
type ServerService struct {
	Server *server.Server
}

// NewHTTPServer assembles the status server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)
	engineSvc := do.MustInvoke[*EngineService](i)
	monitorSvc := do.MustInvoke[*MonitorService](i)
	telSvc := do.MustInvoke[*TelemetryService](i)

	cfg := cfgSvc.Get().Server
	srv := server.New(
		cfg.GetListen(),
		engineSvc.Engine,
		monitorSvc.Monitor,
		telSvc.Registry,
		cfg.GetTimeoutOption().OrElse(30*time.Second),
		logSvc.Logger,
	)
	return &ServerService{Server: srv}, nil
}

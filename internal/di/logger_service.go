package di

import (
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/modelmux/modelmux/internal/logging"
)

// LoggerService wraps the configured zerolog logger.
type LoggerService struct {
	Logger zerolog.Logger
}

// NewLogger builds the logger from logging configuration.
func NewLogger(i do.Injector) (*LoggerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	return &LoggerService{Logger: logging.New(cfgSvc.Get().Logging)}, nil
}

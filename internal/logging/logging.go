// Package logging builds the zerolog logger used across modelmux.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modelmux/modelmux/internal/config"
)

// New creates a logger from logging configuration and installs it as the
// global zerolog logger.
func New(cfg config.LoggingConfig) zerolog.Logger {
	var output io.Writer = os.Stderr
	if shouldUsePretty(cfg) {
		output = buildConsoleWriter(os.Stderr)
	}

	logger := zerolog.New(output).
		Level(cfg.ParseLevel()).
		With().
		Timestamp().
		Logger()

	log.Logger = logger
	return logger
}

// shouldUsePretty determines whether console formatting is used.
func shouldUsePretty(cfg config.LoggingConfig) bool {
	if cfg.Pretty {
		return true
	}

	switch cfg.Format {
	case "json":
		return false
	case "console":
		return true
	default:
		// Auto-detect: pretty when attached to a terminal.
		return isatty.IsTerminal(os.Stderr.Fd())
	}
}

// buildConsoleWriter creates a zerolog.ConsoleWriter with custom formatting.
func buildConsoleWriter(output io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:             output,
		TimeFormat:      "15:04:05",
		FormatLevel:     formatLevel,
		FormatFieldName: formatFieldName,
	}
}

// formatLevel formats the log level with ANSI colors.
func formatLevel(i interface{}) string {
	levelStr, ok := i.(string)
	if !ok {
		return ""
	}

	levelColors := map[string]string{
		"debug": "\033[36mDBG\033[0m",
		"info":  "\033[32mINF\033[0m",
		"warn":  "\033[33mWRN\033[0m",
		"error": "\033[31mERR\033[0m",
		"fatal": "\033[35mFTL\033[0m",
	}

	if colored, exists := levelColors[levelStr]; exists {
		return colored
	}
	return levelStr
}

// formatFieldName formats field names with dim styling.
func formatFieldName(i interface{}) string {
	return fmt.Sprintf("\033[2m%s=\033[0m", i)
}

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/modelmux/internal/config"
)

const sampleConfig = `
server:
  listen: ":9090"
  timeout_ms: 5000
logging:
  level: debug
  format: console
health:
  interval_ms: 120000
breaker:
  failure_threshold: 5
  open_window_ms: 60000
metrics:
  snapshot_schedule: "@every 5m"
  retention_days: 30
providers:
  - id: p1
    org_id: org-1
    name: anthropic primary
    kind: anthropic
    base_url: https://api.anthropic.com
    api_key: ${MODELMUX_TEST_KEY}
    priority: 900
    models:
      - claude-sonnet-4
  - id: p2
    org_id: org-1
    name: openai backup
    kind: openai
    base_url: https://api.openai.com
    priority: 200
`

func TestLoadFromReader(t *testing.T) {
	t.Setenv("MODELMUX_TEST_KEY", "sk-expanded")

	cfg, err := config.LoadFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 120000, cfg.Health.IntervalMS)
	assert.Equal(t, "@every 5m", cfg.Metrics.SnapshotSchedule)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "sk-expanded", cfg.Providers[0].APIKey,
		"environment variables should be expanded")
	assert.Equal(t, []string{"claude-sonnet-4"}, cfg.Providers[0].Models)
	assert.Equal(t, 200, cfg.Providers[1].Priority)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("MODELMUX_TEST_KEY", "sk-file")

	path := filepath.Join(t.TempDir(), "modelmux.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.Providers[0].APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("providers: [not: closed"))
	assert.ErrorContains(t, err, "parse config YAML")
}

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/modelmux/modelmux/internal/domain"
)

const defaultProbeTimeout = 5 * time.Second

// HTTPAdapter probes providers with a GET against their base URL and
// expects a 2xx response. Providers without a base URL are treated as
// reachable (no probe possible, no evidence of failure).
type HTTPAdapter struct {
	client *http.Client
}

var _ Adapter = (*HTTPAdapter)(nil)

// NewHTTPAdapter creates an HTTP adapter. A nil client gets a default
// with a conservative timeout; per-provider timeouts from configuration
// take precedence via the request context.
func NewHTTPAdapter(client *http.Client) *HTTPAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultProbeTimeout}
	}
	return &HTTPAdapter{client: client}
}

// TestConnection performs the connectivity probe.
func (a *HTTPAdapter) TestConnection(ctx context.Context, _ domain.ProviderKind, cfg domain.ProviderConfig) error {
	if cfg.BaseURL == "" {
		return nil
	}

	if cfg.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("adapter: create request: %w", err)
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("adapter: connection test: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("adapter: unhealthy status: %d", resp.StatusCode)
	}
	return nil
}

// Package adapter defines the provider-adapter boundary: the only
// network-performing call this subsystem makes. The health monitor feeds
// each probe's outcome into health classification; the actual model
// execution call lives outside this repository.
package adapter

import (
	"context"

	"github.com/modelmux/modelmux/internal/domain"
)

// Adapter tests connectivity to an upstream provider endpoint.
// Implementations should be lightweight (not full model calls) and must
// honor the context deadline; the monitor owns the probe timeout.
type Adapter interface {
	// TestConnection probes the endpoint described by the provider
	// configuration. A nil return means the endpoint is reachable.
	TestConnection(ctx context.Context, kind domain.ProviderKind, cfg domain.ProviderConfig) error
}

// Func adapts a plain function into an Adapter.
type Func func(ctx context.Context, kind domain.ProviderKind, cfg domain.ProviderConfig) error

// TestConnection calls the function.
func (f Func) TestConnection(ctx context.Context, kind domain.ProviderKind, cfg domain.ProviderConfig) error {
	return f(ctx, kind, cfg)
}

// Package store defines the persistence boundary consumed by the routing
// and monitoring subsystems, plus reference implementations: an in-memory
// provider store and a SQLite-backed metric store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/modelmux/modelmux/internal/domain"
)

// Sentinel errors for store operations.
var (
	// ErrProviderNotFound is returned when a provider id does not exist
	// in the requested organization.
	ErrProviderNotFound = errors.New("store: provider not found")

	// ErrClosed is returned when operations are attempted on a closed store.
	ErrClosed = errors.New("store: store is closed")
)

// ProviderStore is the durable source of provider records. The routing
// engine reads the active list fresh on every selection, so activation
// and deactivation are visible on the very next request.
type ProviderStore interface {
	// ListActiveProviders returns the organization's providers whose
	// active flag is set and whose lifecycle status is active, ordered
	// by descending priority.
	ListActiveProviders(ctx context.Context, orgID string) ([]domain.Provider, error)

	// GetProvider returns the provider with the given id within the
	// organization, or ErrProviderNotFound.
	GetProvider(ctx context.Context, id, orgID string) (*domain.Provider, error)

	// SaveProvider upserts a provider record.
	SaveProvider(ctx context.Context, p *domain.Provider) error

	// AppendRoutingRule appends a rule to the provider's rule list and
	// persists the record.
	AppendRoutingRule(ctx context.Context, providerID, orgID string, rule domain.RoutingRule) error
}

// MetricStore persists aggregated metric records as a time series.
type MetricStore interface {
	// InsertMetric appends one metric record.
	InsertMetric(ctx context.Context, rec domain.MetricRecord) error

	// PruneBefore deletes all records older than the cutoff and returns
	// how many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// MetricsSince returns a provider's records at or after the given
	// time, oldest first.
	MetricsSince(ctx context.Context, providerID string, since time.Time) ([]domain.MetricRecord, error)

	// Close releases store resources.
	Close() error
}

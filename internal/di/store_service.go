package di

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/modelmux/modelmux/internal/store"
)

// StoreService wraps the provider store, seeded from configuration.
type StoreService struct {
	Providers *store.MemoryProviderStore
}

// NewStore creates the provider store and loads the configured seeds.
func NewStore(i do.Injector) (*StoreService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	logSvc := do.MustInvoke[*LoggerService](i)

	st := store.NewMemoryProviderStore()
	ctx := context.Background()
	for idx := range cfgSvc.Get().Providers {
		seed := &cfgSvc.Get().Providers[idx]
		if err := st.SaveProvider(ctx, seed.ToProvider()); err != nil {
			return nil, fmt.Errorf("failed to seed provider %s: %w", seed.ID, err)
		}
	}

	logSvc.Logger.Info().
		Int("providers", len(cfgSvc.Get().Providers)).
		Msg("provider store seeded")
	return &StoreService{Providers: st}, nil
}

// MetricStoreService wraps the SQLite metric store.
type MetricStoreService struct {
	Metrics *store.SQLiteMetricStore
}

// NewMetricStore opens the metrics database.
func NewMetricStore(i do.Injector) (*MetricStoreService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)

	db, err := store.NewSQLiteMetricStore(cfgSvc.Get().Metrics.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics database: %w", err)
	}
	return &MetricStoreService{Metrics: db}, nil
}

// Shutdown implements do.Shutdowner.
func (s *MetricStoreService) Shutdown() error {
	return s.Metrics.Close()
}

package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"gamehub/backend/internal/config"
	"gamehub/backend/internal/igdb"
	"gamehub/backend/internal/ratelimit"
	"gamehub/backend/internal/seed"
)

// igdbRequestsPerSecond stays under IGDB's limit of four requests per second.
const igdbRequestsPerSecond = 4

// ProvideIGDBClient provides the IGDB client paced by its own limiter.
func ProvideIGDBClient(i do.Injector) (*igdb.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return igdb.New(igdb.Config{
		ClientID:     cfg.IGDBClientID,
		ClientSecret: cfg.IGDBClientSecret,
		AccessToken:  cfg.IGDBAccessToken,
		Limiter:      ratelimit.New(igdbRequestsPerSecond, igdbRequestsPerSecond, 0),
	})
}

// ProvideSeeder provides the catalog importer.
func ProvideSeeder(i do.Injector) (*seed.Seeder, error) {
	client, err := do.Invoke[*igdb.Client](i)
	if err != nil {
		return nil, err
	}
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return seed.New(client, storeHandle.Store, log.With("component", "seed"), seed.Options{}), nil
}

// CatalogSchedulerHandle wraps the periodic catalog refresh. Scheduler is nil
// when the refresh is disabled.
type CatalogSchedulerHandle struct {
	Scheduler *seed.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *CatalogSchedulerHandle) Shutdown() error {
	if h.Scheduler == nil {
		return nil
	}
	return h.Scheduler.Shutdown()
}

// ProvideCatalogScheduler starts the periodic catalog refresh when an interval
// and IGDB credentials are configured.
func ProvideCatalogScheduler(i do.Injector) (*CatalogSchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if cfg.CatalogRefreshInterval <= 0 {
		log.Info("Catalog refresh disabled")
		return &CatalogSchedulerHandle{}, nil
	}
	if !cfg.IGDBEnabled() {
		log.Warn("Catalog refresh interval set but IGDB credentials are missing; refresh disabled")
		return &CatalogSchedulerHandle{}, nil
	}

	seeder, err := do.Invoke[*seed.Seeder](i)
	if err != nil {
		return nil, err
	}

	sched, err := seed.NewScheduler(seeder, cfg.CatalogRefreshInterval, cfg.CatalogRefreshBatches, log)
	if err != nil {
		return nil, err
	}
	sched.Start()

	return &CatalogSchedulerHandle{Scheduler: sched}, nil
}

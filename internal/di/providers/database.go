package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"gamehub/backend/internal/config"
	"gamehub/backend/internal/database"
	"gamehub/backend/internal/store"
	"gamehub/backend/internal/store/mongostore"
	"gamehub/backend/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Close(ctx)
}

// ProvideStore connects the backend selected by DATABASE_DRIVER.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s, err := mongostore.Connect(ctx, cfg.MongoConnectionURI(), cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.DatabaseDriver, "database", cfg.MongoDatabase)
		return &StoreHandle{Store: s}, nil

	case config.DriverPostgres:
		db, err := database.Connect(database.Postgres(cfg.PostgresDSN()), log)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.DatabaseDriver)
		return &StoreHandle{Store: sqlstore.New(db)}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

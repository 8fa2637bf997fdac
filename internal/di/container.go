// Package di provides dependency injection configuration for the Game Hub server.
package di

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"

	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/config"
	"gamehub/backend/internal/di/providers"
	"gamehub/backend/internal/handler"
	"gamehub/backend/internal/validation"
	"gamehub/backend/pkg/jwt"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideIssuer)
	do.Provide(injector, providers.ProvideGuard)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAuthLimiter)

	// Catalog importer
	do.Provide(injector, providers.ProvideIGDBClient)
	do.Provide(injector, providers.ProvideSeeder)
	do.Provide(injector, providers.ProvideCatalogScheduler)

	// HTTP
	do.Provide(injector, providers.ProvideHandler)
	do.Provide(injector, providers.ProvideRouter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the server's services in dependency order. The first
// provider error is returned.
func Bootstrap(injector *do.RootScope) error {
	steps := []func() error{
		invoke[*config.Config](injector),
		invoke[*slog.Logger](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*jwt.Issuer](injector),
		invoke[*auth.Guard](injector),
		invoke[*validation.Validator](injector),
		invoke[*providers.AuthLimiterHandle](injector),
		invoke[*handler.Handler](injector),
		invoke[*gin.Engine](injector),
		invoke[*providers.CatalogSchedulerHandle](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}

package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"gamehub/backend/internal/config"
	"gamehub/backend/internal/logger"
)

// ConfigDir is where ProvideConfig looks for the .env file.
var ConfigDir = "."

// ProvideConfig loads and validates the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	cfg, err := config.LoadConfig(ConfigDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.LogLevel),
		AddSource:   cfg.AppEnv == "development",
		Environment: cfg.AppEnv,
	})

	log.Info("Starting Game Hub API",
		"environment", cfg.AppEnv,
		"log_level", cfg.LogLevel,
		"database_driver", cfg.DatabaseDriver,
	)

	return log, nil
}

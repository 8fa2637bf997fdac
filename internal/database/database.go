// Package database opens gorm connections and runs schema migrations.
package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"gamehub/backend/internal/logger"
	"gamehub/backend/internal/models"
)

// Postgres returns the dialector for a postgres DSN.
func Postgres(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}

// Connect opens the database and runs migrations.
func Connect(dialector gorm.Dialector, log *slog.Logger) (*gorm.DB, error) {
	// gorm writes through slog at warn level
	gormLog := gormlogger.New(
		logger.StdLogger(log.With("component", "gorm"), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("Database connection established.", "dialect", dialector.Name())

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database migrated successfully.")
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Game{}, &models.GameLabel{}, &models.Review{}, &models.TrackedGame{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := backfillLabels(db); err != nil {
		return fmt.Errorf("failed to backfill game labels: %w", err)
	}
	return nil
}

// backfillLabels writes label rows for games stored before the label table existed.
func backfillLabels(db *gorm.DB) error {
	var games []models.Game
	return db.
		Where("NOT EXISTS (SELECT 1 FROM game_labels WHERE game_labels.game_id = games.id)").
		FindInBatches(&games, 500, func(_ *gorm.DB, _ int) error {
			var labels []models.GameLabel
			for i := range games {
				labels = append(labels, games[i].Labels()...)
			}
			if len(labels) == 0 {
				return nil
			}
			return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&labels).Error
		}).Error
}

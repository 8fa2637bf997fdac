package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

func (s *Store) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

func (s *Store) ListGames(ctx context.Context, l query.List) ([]models.Game, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Game{})
	q = whereLike(q, "games.title", l.Search)
	q = whereLabel(q, models.LabelGenre, l.Genre)
	q = whereLabel(q, models.LabelPlatform, l.Platform)
	if l.MinRating != nil {
		q = q.Where("games.average_rating >= ?", *l.MinRating)
	}
	if l.MaxRating != nil {
		q = q.Where("games.average_rating <= ?", *l.MaxRating)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var games []models.Game
	err := orderAndPage(q, l, sortColumn(query.Games, l.SortField), "games").Find(&games).Error
	if err != nil {
		return nil, 0, err
	}
	return games, total, nil
}

var upsertColumns = []string{"title", "summary", "genres", "platforms", "thumbnail_url", "release_date"}

// UpsertGame writes the game and its label rows in one transaction.
func (s *Store) UpsertGame(ctx context.Context, g *models.Game) (bool, error) {
	db := s.db.WithContext(ctx)

	// A concurrent insert of the same slug turns the second attempt into an update.
	for attempt := 0; attempt < 2; attempt++ {
		var created bool
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing models.Game
			err := tx.Where("slug = ?", g.Slug).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				g.AverageRating, g.ReviewCount = 0, 0
				if err := tx.Create(g).Error; err != nil {
					return translate(err)
				}
				created = true
			case err != nil:
				return err
			default:
				if err := tx.Model(&existing).Select(upsertColumns).Updates(g).Error; err != nil {
					return translate(err)
				}
				g.ID = existing.ID
				g.CreatedAt = existing.CreatedAt
				g.AverageRating = existing.AverageRating
				g.ReviewCount = existing.ReviewCount
			}
			return replaceLabels(tx, g)
		})
		if errors.Is(err, store.ErrDuplicate) {
			g.ID = ""
			continue
		}
		return created && err == nil, err
	}
	return false, store.ErrDuplicate
}

func replaceLabels(tx *gorm.DB, g *models.Game) error {
	if err := tx.Where("game_id = ?", g.ID).Delete(&models.GameLabel{}).Error; err != nil {
		return err
	}
	labels := g.Labels()
	if len(labels) == 0 {
		return nil
	}
	return tx.Create(&labels).Error
}

// recomputeRating refreshes a game's averageRating and reviewCount from its reviews.
func recomputeRating(tx *gorm.DB, gameID string) error {
	var agg struct {
		Average float64
		Count   int64
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("game_id = ?", gameID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return tx.Model(&models.Game{}).
		Where("id = ?", gameID).
		UpdateColumns(map[string]any{
			"average_rating": agg.Average,
			"review_count":   agg.Count,
		}).Error
}

package sqlstore

import (
	"context"

	"gorm.io/gorm/clause"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

func (s *Store) CreateTrackedGame(ctx context.Context, tg *models.TrackedGame) (*models.TrackedGame, error) {
	if tg.Status == "" {
		tg.Status = models.StatusUnowned
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(tg).Error; err != nil {
		return nil, translate(err)
	}
	return s.GetTrackedGame(ctx, tg.UserID, tg.GameID)
}

func (s *Store) GetTrackedGame(ctx context.Context, userID, gameID string) (*models.TrackedGame, error) {
	var tg models.TrackedGame
	err := s.db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&tg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tg, nil
}

// ListTrackedGames joins games so the search and sort run in the database.
// Search matches the game's title, genres or platforms.
func (s *Store) ListTrackedGames(ctx context.Context, userID string, l query.List) ([]models.TrackedGame, int64, error) {
	q := s.db.WithContext(ctx).
		Model(&models.TrackedGame{}).
		Joins("JOIN games ON games.id = tracked_games.game_id").
		Where("tracked_games.user_id = ?", userID)
	if l.Status != "" {
		q = q.Where("tracked_games.status = ?", l.Status)
	}
	q = whereGameText(q, l.Search)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.TrackedGame
	err := orderAndPage(q.Select("tracked_games.*"), l, sortColumn(query.TrackedGames, l.SortField), "tracked_games").
		Preload("Game").
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) UpdateTrackedGame(ctx context.Context, userID, gameID string, upd store.TrackedGameUpdate) (*models.TrackedGame, error) {
	tg, err := s.GetTrackedGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if upd.Status != nil {
		changes["status"] = *upd.Status
	}
	if upd.Notes != nil {
		changes["notes"] = *upd.Notes
	}
	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.TrackedGame{}).Where("id = ?", tg.ID).Updates(changes).Error; err != nil {
			return nil, translate(err)
		}
	}
	return s.GetTrackedGame(ctx, userID, gameID)
}

func (s *Store) DeleteTrackedGame(ctx context.Context, userID, gameID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&models.TrackedGame{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

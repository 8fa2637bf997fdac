package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

func (s *Store) CreateReview(ctx context.Context, r *models.Review) (*models.Review, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return translate(err)
		}
		return recomputeRating(tx, r.GameID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetReview(ctx, r.ID)
}

func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Game").
		First(&review, "reviews.id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (s *Store) ListReviews(ctx context.Context, f store.ReviewFilter, l query.List) ([]models.Review, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Review{})
	if f.GameID != "" {
		q = q.Where("reviews.game_id = ?", f.GameID)
	}
	if f.UserID != "" {
		q = q.Where("reviews.user_id = ?", f.UserID)
	}
	q = whereLike(q, "reviews.title", l.Search)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := orderAndPage(q, l, sortColumn(query.Reviews, l.SortField), "reviews").
		Preload("User").
		Preload("Game").
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *Store) UpdateReview(ctx context.Context, id string, upd store.ReviewUpdate) (*models.Review, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		changes := map[string]any{}
		if upd.Rating != nil {
			changes["rating"] = *upd.Rating
		}
		if upd.Title != nil {
			changes["title"] = *upd.Title
		}
		if upd.Body != nil {
			changes["body"] = *upd.Body
		}
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Model(&review).Updates(changes).Error; err != nil {
			return err
		}
		if upd.Rating != nil {
			return recomputeRating(tx, review.GameID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetReview(ctx, id)
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return recomputeRating(tx, review.GameID)
	})
}

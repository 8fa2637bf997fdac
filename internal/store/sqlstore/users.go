package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	db := s.db.WithContext(ctx)

	if taken, err := exists(db.Model(&models.User{}).Where("email = ?", u.Email)); err != nil {
		return err
	} else if taken {
		return store.ErrDuplicateEmail
	}
	if taken, err := exists(db.Model(&models.User{}).Where("username = ?", u.Username)); err != nil {
		return err
	} else if taken {
		return store.ErrDuplicateUsername
	}

	return translate(db.Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context, l query.List) ([]models.User, int64, error) {
	q := whereLike(s.db.WithContext(ctx).Model(&models.User{}), "users.username", l.Search)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := orderAndPage(q, l, sortColumn(query.Users, l.SortField), "users").Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd store.UserUpdate) (*models.User, error) {
	db := s.db.WithContext(ctx)

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if upd.Username != nil && *upd.Username != user.Username {
		taken, err := exists(db.Model(&models.User{}).Where("username = ? AND id <> ?", *upd.Username, id))
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, store.ErrDuplicateUsername
		}
		changes["username"] = *upd.Username
	}
	if upd.Bio != nil {
		changes["bio"] = *upd.Bio
	}

	if len(changes) > 0 {
		if err := db.Model(user).Updates(changes).Error; err != nil {
			err = translate(err)
			if errors.Is(err, store.ErrDuplicate) {
				return nil, store.ErrDuplicateUsername
			}
			return nil, err
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		var gameIDs []string
		if err := tx.Model(&models.Review{}).Where("user_id = ?", id).Distinct().Pluck("game_id", &gameIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.TrackedGame{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}

		for _, gameID := range gameIDs {
			if err := recomputeRating(tx, gameID); err != nil {
				return err
			}
		}
		return nil
	})
}

func exists(q *gorm.DB) (bool, error) {
	var count int64
	if err := q.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Package sqlstore implements store.Store on gorm. Production uses postgres;
// tests run the same code on SQLite.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

// Store is a gorm-backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open, migrated gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped. Use it with "LOWER(col) LIKE ? ESCAPE '\'".
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

const likeClause = "LOWER(%s) LIKE ? ESCAPE '\\'"

func whereLike(q *gorm.DB, column, term string) *gorm.DB {
	if term == "" {
		return q
	}
	return q.Where(fmt.Sprintf(likeClause, column), likePattern(term))
}

const labelExists = "EXISTS (SELECT 1 FROM game_labels WHERE game_labels.game_id = games.id AND game_labels.kind IN ? AND LOWER(game_labels.name) LIKE ? ESCAPE '\\')"

// whereLabel keeps games with at least one label of kind containing term.
func whereLabel(q *gorm.DB, kind, term string) *gorm.DB {
	if term == "" {
		return q
	}
	return q.Where(labelExists, []string{kind}, likePattern(term))
}

// whereGameText matches term against the joined game's title or any of its
// genres and platforms.
func whereGameText(q *gorm.DB, term string) *gorm.DB {
	if term == "" {
		return q
	}
	pattern := likePattern(term)
	return q.Where(
		"("+fmt.Sprintf(likeClause, "games.title")+" OR "+labelExists+")",
		pattern, []string{models.LabelGenre, models.LabelPlatform}, pattern,
	)
}

// orderAndPage applies the whitelisted sort column, the id tie-breaker and the page window.
func orderAndPage(q *gorm.DB, l query.List, column clause.Column, idTable string) *gorm.DB {
	desc := !l.Ascending()
	return q.
		Order(clause.OrderByColumn{Column: column, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: idTable, Name: "id"}, Desc: desc}).
		Offset(l.Skip()).
		Limit(l.Limit)
}

// sortColumns maps API sort fields to columns per resource.
var sortColumns = map[string]map[string]clause.Column{
	query.Games.Name: {
		"title":         {Table: "games", Name: "title"},
		"releaseDate":   {Table: "games", Name: "release_date"},
		"createdAt":     {Table: "games", Name: "created_at"},
		"updatedAt":     {Table: "games", Name: "updated_at"},
		"averageRating": {Table: "games", Name: "average_rating"},
		"reviewCount":   {Table: "games", Name: "review_count"},
	},
	query.Reviews.Name: {
		"createdAt": {Table: "reviews", Name: "created_at"},
		"updatedAt": {Table: "reviews", Name: "updated_at"},
		"rating":    {Table: "reviews", Name: "rating"},
		"title":     {Table: "reviews", Name: "title"},
	},
	query.Users.Name: {
		"createdAt": {Table: "users", Name: "created_at"},
		"updatedAt": {Table: "users", Name: "updated_at"},
		"username":  {Table: "users", Name: "username"},
	},
	query.TrackedGames.Name: {
		"createdAt": {Table: "tracked_games", Name: "created_at"},
		"updatedAt": {Table: "tracked_games", Name: "updated_at"},
		"status":    {Table: "tracked_games", Name: "status"},
		"title":     {Table: "games", Name: "title"},
	},
}

func sortColumn(r query.Resource, field string) clause.Column {
	columns := sortColumns[r.Name]
	if c, ok := columns[field]; ok {
		return c
	}
	return columns[r.DefaultSort]
}

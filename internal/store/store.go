// Package store defines the storage contract shared by the MongoDB and SQL
// backends. Filtering, sorting and pagination happen inside the backend.
package store

import (
	"context"
	"errors"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate")

	// ErrDuplicateEmail and ErrDuplicateUsername wrap ErrDuplicate.
	ErrDuplicateEmail    = duplicateErr{field: "email"}
	ErrDuplicateUsername = duplicateErr{field: "username"}
)

type duplicateErr struct {
	field string
}

func (e duplicateErr) Error() string {
	return "store: duplicate " + e.field
}

func (e duplicateErr) Unwrap() error {
	return ErrDuplicate
}

// UserUpdate is a partial account update. Nil fields are left untouched.
type UserUpdate struct {
	Username *string
	Bio      *string
}

// ReviewUpdate is a partial review update. Nil fields are left untouched.
type ReviewUpdate struct {
	Rating *int
	Title  *string
	Body   *string
}

// TrackedGameUpdate is a partial tracked-game update. Nil fields are left untouched.
type TrackedGameUpdate struct {
	Status *models.Status
	Notes  *string
}

// ReviewFilter narrows review listings to one game and/or one author.
type ReviewFilter struct {
	GameID string
	UserID string
}

// Store is the persistence contract used by the HTTP handlers and the importer.
type Store interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	// FindUserByLogin matches login against username or email.
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	ListUsers(ctx context.Context, l query.List) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (*models.User, error)
	// DeleteUser removes the account with its reviews and tracked games.
	DeleteUser(ctx context.Context, id string) error

	GetGame(ctx context.Context, id string) (*models.Game, error)
	ListGames(ctx context.Context, l query.List) ([]models.Game, int64, error)
	// UpsertGame inserts or replaces the catalog entry with the same slug.
	// Rating aggregates of an existing entry are preserved.
	UpsertGame(ctx context.Context, g *models.Game) (created bool, err error)

	// CreateReview stores r and returns it with User and Game populated.
	CreateReview(ctx context.Context, r *models.Review) (*models.Review, error)
	GetReview(ctx context.Context, id string) (*models.Review, error)
	ListReviews(ctx context.Context, f ReviewFilter, l query.List) ([]models.Review, int64, error)
	UpdateReview(ctx context.Context, id string, upd ReviewUpdate) (*models.Review, error)
	DeleteReview(ctx context.Context, id string) error

	CreateTrackedGame(ctx context.Context, tg *models.TrackedGame) (*models.TrackedGame, error)
	GetTrackedGame(ctx context.Context, userID, gameID string) (*models.TrackedGame, error)
	// ListTrackedGames filters on status and the joined game title.
	ListTrackedGames(ctx context.Context, userID string, l query.List) ([]models.TrackedGame, int64, error)
	UpdateTrackedGame(ctx context.Context, userID, gameID string, upd TrackedGameUpdate) (*models.TrackedGame, error)
	DeleteTrackedGame(ctx context.Context, userID, gameID string) error
}

// IsEmpty reports whether u carries no fields.
func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.Bio == nil
}

// IsEmpty reports whether u carries no fields.
func (u ReviewUpdate) IsEmpty() bool {
	return u.Rating == nil && u.Title == nil && u.Body == nil
}

// IsEmpty reports whether u carries no fields.
func (u TrackedGameUpdate) IsEmpty() bool {
	return u.Status == nil && u.Notes == nil
}

package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"gamehub/backend/internal/models"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Bio       string             `bson:"bio"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type gameDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Title         string             `bson:"title"`
	Slug          string             `bson:"slug"`
	Summary       string             `bson:"summary"`
	Genres        []string           `bson:"genres"`
	Platforms     []string           `bson:"platforms"`
	Thumbnail     string             `bson:"thumbnail,omitempty"`
	ReleaseDate   time.Time          `bson:"releaseDate"`
	AverageRating float64            `bson:"averageRating"`
	ReviewCount   int64              `bson:"reviewCount"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type reviewDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	User       primitive.ObjectID `bson:"user"`
	Game       primitive.ObjectID `bson:"game"`
	Rating     int                `bson:"rating"`
	Title      string             `bson:"title"`
	ReviewBody string             `bson:"reviewBody"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`

	// populated by $lookup, never stored
	UserDoc *userDoc `bson:"userDoc,omitempty"`
	GameDoc *gameDoc `bson:"gameDoc,omitempty"`
}

type trackedDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      primitive.ObjectID `bson:"user"`
	Game      primitive.ObjectID `bson:"game"`
	Status    string             `bson:"status"`
	Notes     string             `bson:"notes"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`

	GameDoc *gameDoc `bson:"gameDoc,omitempty"`
}

func base(id primitive.ObjectID, created, updated time.Time) models.Base {
	return models.Base{ID: id.Hex(), CreatedAt: created, UpdatedAt: updated}
}

func (d *userDoc) model() *models.User {
	if d == nil {
		return nil
	}
	return &models.User{
		Base:         base(d.ID, d.CreatedAt, d.UpdatedAt),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Bio:          d.Bio,
	}
}

func (d *gameDoc) model() *models.Game {
	if d == nil {
		return nil
	}
	return &models.Game{
		Base:          base(d.ID, d.CreatedAt, d.UpdatedAt),
		Title:         d.Title,
		Slug:          d.Slug,
		Summary:       d.Summary,
		Genres:        d.Genres,
		Platforms:     d.Platforms,
		ThumbnailURL:  d.Thumbnail,
		ReleaseDate:   d.ReleaseDate,
		AverageRating: d.AverageRating,
		ReviewCount:   d.ReviewCount,
	}
}

func (d *reviewDoc) model() *models.Review {
	return &models.Review{
		Base:   base(d.ID, d.CreatedAt, d.UpdatedAt),
		UserID: d.User.Hex(),
		GameID: d.Game.Hex(),
		Rating: d.Rating,
		Title:  d.Title,
		Body:   d.ReviewBody,
		User:   d.UserDoc.model(),
		Game:   d.GameDoc.model(),
	}
}

func (d *trackedDoc) model() *models.TrackedGame {
	return &models.TrackedGame{
		Base:   base(d.ID, d.CreatedAt, d.UpdatedAt),
		UserID: d.User.Hex(),
		GameID: d.Game.Hex(),
		Status: models.Status(d.Status),
		Notes:  d.Notes,
		Game:   d.GameDoc.model(),
	}
}

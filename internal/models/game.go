package models

import "time"

// Game represents a catalog entry.
type Game struct {
	Base
	Title         string    `gorm:"size:255;not null;index" json:"title"`
	Slug          string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Summary       string    `json:"summary"`
	Genres        []string  `gorm:"type:text;serializer:json" json:"genres"`
	Platforms     []string  `gorm:"type:text;serializer:json" json:"platforms"`
	ThumbnailURL  string    `gorm:"size:512" json:"thumbnailUrl,omitempty"`
	ReleaseDate   time.Time `gorm:"index" json:"releaseDate"`
	AverageRating float64   `gorm:"not null;default:0;index" json:"averageRating"`
	ReviewCount   int64     `gorm:"not null;default:0" json:"reviewCount"`
}

// Label kinds stored in GameLabel.Kind.
const (
	LabelGenre    = "genre"
	LabelPlatform = "platform"
)

// GameLabel is one genre or platform of a game. The SQL store keeps them in
// their own table so filters match individual entries rather than the
// serialized list.
type GameLabel struct {
	GameID string `gorm:"primaryKey;size:24"`
	Kind   string `gorm:"primaryKey;size:16"`
	Name   string `gorm:"primaryKey;size:255"`
}

// Labels returns g's genres and platforms as GameLabel rows, without duplicates.
func (g *Game) Labels() []GameLabel {
	seen := make(map[GameLabel]bool)
	var out []GameLabel
	add := func(kind string, names []string) {
		for _, name := range names {
			l := GameLabel{GameID: g.ID, Kind: kind, Name: name}
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	add(LabelGenre, g.Genres)
	add(LabelPlatform, g.Platforms)
	return out
}

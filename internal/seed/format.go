package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"gamehub/backend/internal/igdb"
	"gamehub/backend/internal/models"
)

const (
	defaultSummary = "No summary available."
	unknown        = "Unknown"
)

// FormatGame converts an IGDB record into a catalog entry. Records without a
// title are rejected. Titles with nothing sluggable fall back to the IGDB id.
func FormatGame(g igdb.Game) (*models.Game, bool) {
	title := strings.TrimSpace(g.Name)
	if title == "" {
		return nil, false
	}
	s := slug.Make(title)
	if s == "" {
		s = fmt.Sprintf("igdb-%d", g.ID)
	}

	summary := strings.TrimSpace(g.Summary)
	if summary == "" {
		summary = defaultSummary
	}

	game := &models.Game{
		Title:     title,
		Slug:      s,
		Summary:   summary,
		Genres:    names(g.Genres),
		Platforms: names(g.Platforms),
	}
	if g.Cover != nil {
		game.ThumbnailURL = coverURL(g.Cover.URL)
	}
	if g.FirstReleaseDate != 0 {
		game.ReleaseDate = time.Unix(g.FirstReleaseDate, 0).UTC()
	}
	return game, true
}

func names(refs []igdb.Named) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if name := strings.TrimSpace(r.Name); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return []string{unknown}
	}
	return out
}

// coverURL upgrades the thumbnail size and makes protocol-relative urls absolute.
func coverURL(u string) string {
	if u == "" {
		return ""
	}
	u = strings.Replace(u, "t_thumb", "t_cover_big", 1)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}

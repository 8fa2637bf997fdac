// Package storetest is a conformance suite run against every store backend.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gosimple/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	tests := map[string]func(t *testing.T, s store.Store){
		"Users":                  testUsers,
		"UpdateUser":             testUpdateUser,
		"ListUsers":              testListUsers,
		"UpsertGame":             testUpsertGame,
		"ListGamesPagination":    testListGamesPagination,
		"ListGamesFilters":       testListGamesFilters,
		"Reviews":                testReviews,
		"ReviewRatingAggregates": testReviewRatingAggregates,
		"ListReviews":            testListReviews,
		"TrackedGames":           testTrackedGames,
		"ListTrackedGames":       testListTrackedGames,
		"DeleteUserCascades":     testDeleteUserCascades,
	}

	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}

func createUser(t *testing.T, s store.Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	require.True(t, models.ValidID(u.ID))
	return u
}

func createGame(t *testing.T, s store.Store, title string, genres, platforms []string) *models.Game {
	t.Helper()
	g := &models.Game{
		Title:       title,
		Slug:        slug.Make(title),
		Summary:     "About " + title,
		Genres:      genres,
		Platforms:   platforms,
		ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	created, err := s.UpsertGame(context.Background(), g)
	require.NoError(t, err)
	require.True(t, created)
	return g
}

func createReview(t *testing.T, s store.Store, user *models.User, game *models.Game, rating int) *models.Review {
	t.Helper()
	r, err := s.CreateReview(context.Background(), &models.Review{
		UserID: user.ID,
		GameID: game.ID,
		Rating: rating,
		Title:  fmt.Sprintf("%s on %s", user.Username, game.Title),
		Body:   "Body",
	})
	require.NoError(t, err)
	return r
}

func list(r query.Resource) query.List {
	return query.Default(r)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")

	err := s.CreateUser(ctx, &models.User{Username: "other", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	err = s.CreateUser(ctx, &models.User{Username: "alice", Email: "new@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, "", got.Bio)

	byName, err := s.FindUserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := s.FindUserByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = s.FindUserByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUser(ctx, models.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpdateUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	createUser(t, s, "bob")

	bio := "Hello there"
	updated, err := s.UpdateUser(ctx, alice.ID, store.UserUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", updated.Bio)
	assert.Equal(t, "alice", updated.Username)

	taken := "bob"
	_, err = s.UpdateUser(ctx, alice.ID, store.UserUpdate{Username: &taken})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)

	same := "alice"
	_, err = s.UpdateUser(ctx, alice.ID, store.UserUpdate{Username: &same})
	assert.NoError(t, err)

	renamed := "alicia"
	updated, err = s.UpdateUser(ctx, alice.ID, store.UserUpdate{Username: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "Hello there", updated.Bio)

	_, err = s.UpdateUser(ctx, models.NewID(), store.UserUpdate{Bio: &bio})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, name := range []string{"alice", "bob", "carol", "alfred"} {
		createUser(t, s, name)
	}

	users, total, err := s.ListUsers(ctx, list(query.Users))
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, users, 4)
	// newest first
	assert.Equal(t, "alfred", users[0].Username)
	assert.Equal(t, "alice", users[3].Username)

	l := list(query.Users)
	l.Search = "AL"
	l.SortField = "username"
	l.Order = query.Asc
	users, total, err = s.ListUsers(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)
	assert.Equal(t, "alfred", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)
}

func testUpsertGame(t *testing.T, s store.Store) {
	ctx := context.Background()
	game := createGame(t, s, "Hollow Knight", []string{"Platform"}, []string{"PC"})
	user := createUser(t, s, "alice")
	createReview(t, s, user, game, 9)

	replacement := &models.Game{
		Title:     "Hollow Knight",
		Slug:      game.Slug,
		Summary:   "Updated summary",
		Genres:    []string{"Platform", "Adventure"},
		Platforms: []string{"PC", "Switch"},
	}
	created, err := s.UpsertGame(ctx, replacement)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, game.ID, replacement.ID)

	got, err := s.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated summary", got.Summary)
	assert.Equal(t, []string{"Platform", "Adventure"}, got.Genres)
	assert.Equal(t, []string{"PC", "Switch"}, got.Platforms)
	assert.Equal(t, 9.0, got.AverageRating)
	assert.Equal(t, int64(1), got.ReviewCount)

	// filters follow the replaced genres and platforms
	l := list(query.Games)
	l.Platform = "switch"
	_, total, err := s.ListGames(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	replacement.Genres = []string{"Adventure"}
	_, err = s.UpsertGame(ctx, replacement)
	require.NoError(t, err)
	l = list(query.Games)
	l.Genre = "platform"
	_, total, err = s.ListGames(ctx, l)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = s.GetGame(ctx, models.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListGamesPagination(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		createGame(t, s, fmt.Sprintf("Game %02d", i), []string{"Action"}, []string{"PC"})
	}

	l := list(query.Games)
	l.Page, l.Limit = 2, 5
	games, total, err := s.ListGames(ctx, l)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, games, 5)
	assert.Equal(t, "Game 06", games[0].Title)
	assert.Equal(t, "Game 10", games[4].Title)

	page := query.NewPage(games, total, l)
	assert.Equal(t, int64(3), page.TotalPages)

	l.Page = 3
	games, _, err = s.ListGames(ctx, l)
	require.NoError(t, err)
	assert.Len(t, games, 2)

	l.Page = 4
	games, total, err = s.ListGames(ctx, l)
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.Equal(t, int64(12), total)
}

func testListGamesFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	zelda := createGame(t, s, "The Legend of Zelda", []string{"Adventure", "RPG"}, []string{"Switch"})
	doom := createGame(t, s, "DOOM", []string{"Shooter"}, []string{"PC", "PlayStation 5"})
	createGame(t, s, "100% Orange Juice", []string{"Board game"}, []string{"PC"})
	createGame(t, s, "Catan", []string{"Card & Board Game"}, []string{"iOS"})

	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	createReview(t, s, alice, zelda, 9)
	createReview(t, s, bob, zelda, 8)
	createReview(t, s, alice, doom, 6)

	tests := []struct {
		name   string
		modify func(l *query.List)
		want   []string
	}{
		{name: "search case-insensitive", modify: func(l *query.List) { l.Search = "zELDa" }, want: []string{"The Legend of Zelda"}},
		{name: "search literal percent", modify: func(l *query.List) { l.Search = "100%" }, want: []string{"100% Orange Juice"}},
		{name: "search metacharacters match nothing", modify: func(l *query.List) { l.Search = ".*" }, want: nil},
		{name: "genre", modify: func(l *query.List) { l.Genre = "rpg" }, want: []string{"The Legend of Zelda"}},
		{name: "genre with ampersand", modify: func(l *query.List) { l.Genre = "card & board" }, want: []string{"Catan"}},
		{name: "genre substring of each entry", modify: func(l *query.List) { l.Genre = "board" }, want: []string{"100% Orange Juice", "Catan"}},
		{name: "genre quote matches nothing", modify: func(l *query.List) { l.Genre = `"` }, want: nil},
		{name: "genre comma matches nothing", modify: func(l *query.List) { l.Genre = "," }, want: nil},
		{name: "genre never spans two entries", modify: func(l *query.List) { l.Genre = `adventure","rpg` }, want: nil},
		{name: "genre does not match platforms", modify: func(l *query.List) { l.Genre = "switch" }, want: nil},
		{name: "platform", modify: func(l *query.List) { l.Platform = "pc" }, want: []string{"100% Orange Juice", "DOOM"}},
		{name: "platform substring", modify: func(l *query.List) { l.Platform = "station" }, want: []string{"DOOM"}},
		{name: "min rating inclusive", modify: func(l *query.List) { v := 8.5; l.MinRating = &v }, want: []string{"The Legend of Zelda"}},
		{name: "max rating inclusive", modify: func(l *query.List) { v := 6.0; l.MaxRating = &v }, want: []string{"100% Orange Juice", "Catan", "DOOM"}},
		{name: "rating range", modify: func(l *query.List) { lo, hi := 1.0, 8.0; l.MinRating, l.MaxRating = &lo, &hi }, want: []string{"DOOM"}},
		{name: "sort by rating desc", modify: func(l *query.List) { l.SortField = "averageRating"; l.Order = query.Desc }, want: []string{"The Legend of Zelda", "DOOM", "Catan", "100% Orange Juice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := list(query.Games)
			tt.modify(&l)
			games, total, err := s.ListGames(ctx, l)
			require.NoError(t, err)

			var titles []string
			for _, g := range games {
				titles = append(titles, g.Title)
			}
			assert.Equal(t, tt.want, titles)
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func testReviews(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	game := createGame(t, s, "Celeste", []string{"Platform"}, []string{"PC"})

	review := createReview(t, s, alice, game, 8)
	require.NotNil(t, review.User)
	require.NotNil(t, review.Game)
	assert.Equal(t, "alice", review.User.Username)
	assert.Equal(t, "Celeste", review.Game.Title)

	_, err := s.CreateReview(ctx, &models.Review{UserID: alice.ID, GameID: game.ID, Rating: 2, Title: "Again", Body: "x"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	original, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, original.Rating)

	title := "Changed"
	updated, err := s.UpdateReview(ctx, review.ID, store.ReviewUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.Title)
	assert.Equal(t, 8, updated.Rating)
	assert.Equal(t, "alice", updated.User.Username)

	require.NoError(t, s.DeleteReview(ctx, review.ID))
	_, err = s.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReview(ctx, review.ID), store.ErrNotFound)

	_, err = s.UpdateReview(ctx, review.ID, store.ReviewUpdate{Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testReviewRatingAggregates(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	game := createGame(t, s, "Hades", []string{"Roguelike"}, []string{"PC"})

	createReview(t, s, alice, game, 10)
	second := createReview(t, s, bob, game, 7)

	got, err := s.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8.5, got.AverageRating, 0.0001)
	assert.Equal(t, int64(2), got.ReviewCount)

	rating := 4
	_, err = s.UpdateReview(ctx, second.ID, store.ReviewUpdate{Rating: &rating})
	require.NoError(t, err)
	got, err = s.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, got.AverageRating, 0.0001)

	require.NoError(t, s.DeleteReview(ctx, second.ID))
	got, err = s.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got.AverageRating, 0.0001)
	assert.Equal(t, int64(1), got.ReviewCount)
}

func testListReviews(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	g1 := createGame(t, s, "Portal", nil, nil)
	g2 := createGame(t, s, "Portal 2", nil, nil)

	createReview(t, s, alice, g1, 9)
	createReview(t, s, bob, g1, 5)
	createReview(t, s, alice, g2, 10)

	reviews, total, err := s.ListReviews(ctx, store.ReviewFilter{GameID: g1.ID}, list(query.Reviews))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, reviews, 2)
	// newest first
	assert.Equal(t, "bob", reviews[0].User.Username)
	assert.Equal(t, "Portal", reviews[0].Game.Title)

	reviews, total, err = s.ListReviews(ctx, store.ReviewFilter{UserID: alice.ID}, list(query.Reviews))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, reviews, 2)

	l := list(query.Reviews)
	l.SortField, l.Order = "rating", query.Asc
	reviews, total, err = s.ListReviews(ctx, store.ReviewFilter{}, l)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, reviews, 3)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, 10, reviews[2].Rating)
}

func testTrackedGames(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	game := createGame(t, s, "Outer Wilds", nil, nil)

	tg, err := s.CreateTrackedGame(ctx, &models.TrackedGame{UserID: alice.ID, GameID: game.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnowned, tg.Status)
	assert.Equal(t, "", tg.Notes)
	require.NotNil(t, tg.Game)
	assert.Equal(t, "Outer Wilds", tg.Game.Title)

	_, err = s.CreateTrackedGame(ctx, &models.TrackedGame{UserID: alice.ID, GameID: game.ID, Status: models.StatusOwned})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got, err := s.GetTrackedGame(ctx, alice.ID, game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnowned, got.Status)

	status := models.StatusOwned
	notes := "Finished it"
	updated, err := s.UpdateTrackedGame(ctx, alice.ID, game.ID, store.TrackedGameUpdate{Status: &status, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOwned, updated.Status)
	assert.Equal(t, "Finished it", updated.Notes)

	require.NoError(t, s.DeleteTrackedGame(ctx, alice.ID, game.ID))
	_, err = s.GetTrackedGame(ctx, alice.ID, game.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTrackedGame(ctx, alice.ID, game.ID), store.ErrNotFound)

	_, err = s.UpdateTrackedGame(ctx, alice.ID, game.ID, store.TrackedGameUpdate{Notes: &notes})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListTrackedGames(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")

	entries := []struct {
		title     string
		status    models.Status
		genres    []string
		platforms []string
	}{
		{"Stardew Valley", models.StatusOwned, nil, nil},
		{"Baldur's Gate 3", models.StatusWishlisted, []string{"Role-playing (RPG)"}, []string{"PlayStation 5"}},
		{"Starbound", models.StatusWishlisted, nil, nil},
		{"Starfield", models.StatusBlacklisted, nil, nil},
	}
	for _, e := range entries {
		g := createGame(t, s, e.title, e.genres, e.platforms)
		_, err := s.CreateTrackedGame(ctx, &models.TrackedGame{UserID: alice.ID, GameID: g.ID, Status: e.status})
		require.NoError(t, err)
		_, err = s.CreateTrackedGame(ctx, &models.TrackedGame{UserID: bob.ID, GameID: g.ID, Status: models.StatusOwned})
		require.NoError(t, err)
	}

	items, total, err := s.ListTrackedGames(ctx, alice.ID, list(query.TrackedGames))
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, items, 4)
	assert.Equal(t, "Starfield", items[0].Game.Title)

	l := list(query.TrackedGames)
	l.Status = models.StatusWishlisted
	l.Search = "STAR"
	items, total, err = s.ListTrackedGames(ctx, alice.ID, l)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Starbound", items[0].Game.Title)

	for _, term := range []string{"playstation", "rpg"} {
		l = list(query.TrackedGames)
		l.Search = term
		items, total, err = s.ListTrackedGames(ctx, alice.ID, l)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total, term)
		require.Len(t, items, 1)
		assert.Equal(t, "Baldur's Gate 3", items[0].Game.Title)
	}

	l = list(query.TrackedGames)
	l.SortField, l.Order = "title", query.Asc
	l.Limit = 2
	l.Page = 2
	items, total, err = s.ListTrackedGames(ctx, alice.ID, l)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Stardew Valley", items[0].Game.Title)
	assert.Equal(t, "Starfield", items[1].Game.Title)
}

func testDeleteUserCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	game := createGame(t, s, "Tunic", nil, nil)

	review := createReview(t, s, alice, game, 2)
	createReview(t, s, bob, game, 8)
	_, err := s.CreateTrackedGame(ctx, &models.TrackedGame{UserID: alice.ID, GameID: game.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, alice.ID))

	_, err = s.GetUser(ctx, alice.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetReview(ctx, review.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTrackedGame(ctx, alice.ID, game.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got.AverageRating, 0.0001)
	assert.Equal(t, int64(1), got.ReviewCount)

	assert.ErrorIs(t, s.DeleteUser(ctx, alice.ID), store.ErrNotFound)
}

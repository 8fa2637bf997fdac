package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/gosimple/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/database"
	"gamehub/backend/internal/handler"
	"gamehub/backend/internal/logger"
	"gamehub/backend/internal/models"
	"gamehub/backend/internal/ratelimit"
	"gamehub/backend/internal/store/sqlstore"
	"gamehub/backend/internal/validation"
	"gamehub/backend/pkg/jwt"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *sqlstore.Store
}

func newTestServer(t *testing.T, authBurst int) *testServer {
	t.Helper()

	log := logger.Discard()
	db, err := database.Connect(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), log)
	require.NoError(t, err)

	st := sqlstore.New(db)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	issuer := jwt.NewIssuer(testSecret, jwt.TokenTTL)
	limiter := ratelimit.New(1, authBurst, 0)
	t.Cleanup(limiter.Stop)

	h := handler.New(st, issuer, validation.New(), log, handler.Options{BcryptCost: bcrypt.MinCost})
	engine := New(Deps{
		Handler:     h,
		Guard:       auth.NewGuard(issuer, log),
		AuthLimiter: limiter,
		Log:         log,
	})

	return &testServer{t: t, engine: engine, store: st}
}

func (s *testServer) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

// register creates an account and logs in, returning the user id and token.
func (s *testServer) register(email, username, password string) (string, string) {
	s.t.Helper()

	rec, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"email": email, "username": username, "password": password,
	}, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, env.Error)

	rec, _ = s.do(http.MethodPost, "/api/auth/login", gin.H{"username": username, "password": password}, "")
	require.Equal(s.t, http.StatusOK, rec.Code)

	var user handler.AuthUserResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &user))
	return user.ID, tokenCookie(s.t, rec).Value
}

func (s *testServer) game(title string) *models.Game {
	s.t.Helper()
	g := &models.Game{
		Title:       title,
		Slug:        slug.Make(title),
		Genres:      []string{"Adventure"},
		Platforms:   []string{"PC"},
		ReleaseDate: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := s.store.UpsertGame(context.Background(), g)
	require.NoError(s.t, err)
	return g
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("no %q cookie in response", auth.CookieName)
	return nil
}

// tamper swaps the username in the payload while keeping the original signature.
func tamper(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	payload = bytes.Replace(payload, []byte(`"alice"`), []byte(`"admin"`), 1)
	parts[1] = base64.RawURLEncoding.EncodeToString(payload)
	return strings.Join(parts, ".")
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, 100)

	rec, env := s.do(http.MethodGet, "/api", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the Game Hub API!", env.Message)

	rec, env = s.do(http.MethodGet, "/api/ping", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", env.Message)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, env = s.do(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Error)

	rec, env = s.do(http.MethodPut, "/api/games", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", env.Error)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, 100)

	rec, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"email": " Alice@Example.com ", "username": "Alice", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	assert.Equal(t, "User created successfully", env.Message)
	assert.NotContains(t, string(env.Data), "password")
	assert.NotContains(t, string(env.Data), "secret1")

	user := decode[handler.AuthUserResponse](t, env.Data)
	assert.True(t, models.ValidID(user.ID))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)

	t.Run("duplicate email", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
			"email": "alice@example.com", "username": "alice2", "password": "secret1",
		}, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Email already in use", env.Error)
	})

	t.Run("duplicate username", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/auth/register", gin.H{
			"email": "other@example.com", "username": "ALICE", "password": "secret1",
		}, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Username already exists", env.Error)
	})

	t.Run("invalid input", func(t *testing.T) {
		bodies := []any{
			`{"email":`,
			gin.H{"email": "not-an-email", "username": "bob", "password": "secret1"},
			gin.H{"email": "bob@example.com", "username": "bo", "password": "secret1"},
			gin.H{"email": "bob@example.com", "username": "bob", "password": "short"},
			gin.H{"email": "bob@example.com", "username": "bob"},
		}
		for i, body := range bodies {
			rec, env := s.do(http.MethodPost, "/api/auth/register", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %d", i)
			assert.NotEmpty(t, env.Error, "body %d", i)
		}
	})

	t.Run("login by username sets cookie", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "secret1"}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Login successful", env.Message)
		assert.NotContains(t, string(env.Data), "password")

		cookie := tokenCookie(t, rec)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		assert.Equal(t, int(jwt.TokenTTL.Seconds()), cookie.MaxAge)
	})

	t.Run("login by email", func(t *testing.T) {
		rec, _ := s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "Alice@example.com", "password": "secret1"}, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad credentials share one message", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "alice", "password": "wrong-pass"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", env.Error)

		rec, env = s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "nobody", "password": "secret1"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", env.Error)
	})

	t.Run("logout expires cookie", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/auth/logout", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Logged out successfully", env.Message)

		cookie := tokenCookie(t, rec)
		assert.Empty(t, cookie.Value)
		assert.Less(t, cookie.MaxAge, 0)
	})
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	body := gin.H{"username": "nobody", "password": "secret1"}
	for i := 0; i < 2; i++ {
		rec, _ := s.do(http.MethodPost, "/api/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, env := s.do(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later", env.Error)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCredentialRejection(t *testing.T) {
	s := newTestServer(t, 100)
	aliceID, token := s.register("alice@example.com", "alice", "secret1")

	expired := func() string {
		claims := jwt.Claims{
			ID:       aliceID,
			Username: "alice",
			Email:    "alice@example.com",
			RegisteredClaims: gojwt.RegisteredClaims{
				IssuedAt:  gojwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
				ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
			},
		}
		signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return signed
	}()

	foreign, err := jwt.NewIssuer("some-other-secret", 0).GenerateToken(aliceID, "alice", "alice@example.com")
	require.NoError(t, err)

	rec, env := s.do(http.MethodGet, "/api/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", env.Error)

	for name, bad := range map[string]string{
		"expired":  expired,
		"tampered": tamper(t, token),
		"foreign":  foreign,
		"garbage":  "not.a.token",
	} {
		rec, env := s.do(http.MethodGet, "/api/users", nil, bad)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.Equal(t, "Invalid or expired token", env.Error, name)
	}

	rec, _ = s.do(http.MethodGet, "/api/users", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t, 100)
	game := s.game("Hollow Knight")
	_, token := s.register("a@x.com", "alice", "secret1")

	body := gin.H{"game": game.ID, "rating": 8, "title": "Great", "reviewBody": "Fun game"}

	rec, env := s.do(http.MethodPost, "/api/reviews", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	assert.Equal(t, "Review created successfully", env.Message)

	created := decode[handler.ReviewEnvelope](t, env.Data).Review
	assert.Equal(t, "alice", created.User.Username)
	assert.Equal(t, game.ID, created.Game.ID)
	assert.Equal(t, "Hollow Knight", created.Game.Title)
	assert.Equal(t, 8, created.Rating)

	rec, env = s.do(http.MethodPost, "/api/reviews", body, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User has already reviewed this game", env.Error)

	rec, env = s.do(http.MethodGet, "/api/games/"+game.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[handler.GameEnvelope](t, env.Data).Game
	assert.InDelta(t, 8.0, got.AverageRating, 0.0001)
	assert.Equal(t, int64(1), got.ReviewCount)

	rec, env = s.do(http.MethodGet, "/api/games/"+game.ID+"/reviews", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	reviews := decode[page[handler.ReviewResponse]](t, env.Data)
	require.Len(t, reviews.Items, 1)
	assert.Equal(t, created.ID, reviews.Items[0].ID)

	t.Run("missing game", func(t *testing.T) {
		rec, env := s.do(http.MethodPost, "/api/reviews", gin.H{
			"game": models.NewID(), "rating": 5, "title": "Hmm", "reviewBody": "Where is it",
		}, token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Game not found", env.Error)
	})

	t.Run("invalid bodies", func(t *testing.T) {
		bodies := []gin.H{
			{"game": "xyz", "rating": 5, "title": "Hmm", "reviewBody": "Bad id"},
			{"game": game.ID, "rating": 11, "title": "Hmm", "reviewBody": "Too high"},
			{"game": game.ID, "rating": 0, "title": "Hmm", "reviewBody": "Too low"},
			{"game": game.ID, "rating": 5, "title": string(bytes.Repeat([]byte("t"), 41)), "reviewBody": "Long"},
			{"game": game.ID, "rating": 5, "title": "Hmm"},
		}
		for i, b := range bodies {
			rec, _ := s.do(http.MethodPost, "/api/reviews", b, token)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %d", i)
		}
	})

	t.Run("requires credentials", func(t *testing.T) {
		rec, _ := s.do(http.MethodPost, "/api/reviews", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOwnership(t *testing.T) {
	s := newTestServer(t, 100)
	game := s.game("Celeste")
	aliceID, alice := s.register("alice@example.com", "alice", "secret1")
	bobID, bob := s.register("bob@example.com", "bob", "secret1")

	_, env := s.do(http.MethodPost, "/api/reviews", gin.H{
		"game": game.ID, "rating": 9, "title": "Tight", "reviewBody": "Great platforming",
	}, alice)
	review := decode[handler.ReviewEnvelope](t, env.Data).Review
	reviewPath := "/api/reviews/" + review.ID

	t.Run("non-owner is forbidden", func(t *testing.T) {
		rec, env := s.do(http.MethodPatch, reviewPath, gin.H{"rating": 1}, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "You do not have permission to modify this resource", env.Error)

		rec, _ = s.do(http.MethodDelete, reviewPath, nil, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = s.do(http.MethodPatch, "/api/users/"+aliceID, gin.H{"bio": "hacked"}, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = s.do(http.MethodDelete, "/api/users/"+aliceID, nil, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing resource is 404 before 403", func(t *testing.T) {
		rec, env := s.do(http.MethodPatch, "/api/reviews/"+models.NewID(), gin.H{"rating": 1}, bob)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Review not found", env.Error)

		rec, env = s.do(http.MethodDelete, "/api/users/"+models.NewID(), nil, bob)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", env.Error)
	})

	t.Run("forbidden before body validation", func(t *testing.T) {
		rec, _ := s.do(http.MethodPatch, reviewPath, gin.H{"rating": 99}, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("owner updates review", func(t *testing.T) {
		rec, env := s.do(http.MethodPatch, reviewPath, gin.H{"rating": 7, "title": "Still tight"}, alice)
		require.Equal(t, http.StatusOK, rec.Code, env.Error)
		updated := decode[handler.ReviewEnvelope](t, env.Data).Review
		assert.Equal(t, 7, updated.Rating)
		assert.Equal(t, "Still tight", updated.Title)
		assert.Equal(t, "Great platforming", updated.ReviewBody)

		rec, env = s.do(http.MethodPatch, reviewPath, gin.H{}, alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No valid fields to update", env.Error)
	})

	t.Run("profile visibility", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, "/api/users/"+aliceID, nil, bob)
		require.Equal(t, http.StatusOK, rec.Code)
		other := decode[handler.UserEnvelope](t, env.Data).User
		assert.False(t, other.IsCurrentUser)
		assert.Empty(t, other.Email)

		rec, env = s.do(http.MethodGet, "/api/users/"+bobID, nil, bob)
		require.Equal(t, http.StatusOK, rec.Code)
		self := decode[handler.UserEnvelope](t, env.Data).User
		assert.True(t, self.IsCurrentUser)
		assert.Equal(t, "bob@example.com", self.Email)
		assert.NotContains(t, string(env.Data), "password")
	})

	t.Run("owner updates profile", func(t *testing.T) {
		rec, env := s.do(http.MethodPatch, "/api/users/"+bobID, gin.H{"username": "alice"}, bob)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Username already exists", env.Error)

		rec, env = s.do(http.MethodPatch, "/api/users/"+bobID, gin.H{"bio": "Speedrunner"}, bob)
		require.Equal(t, http.StatusOK, rec.Code, env.Error)
		assert.Equal(t, "Speedrunner", decode[handler.UserEnvelope](t, env.Data).User.Bio)
	})

	t.Run("owner deletes review", func(t *testing.T) {
		rec, _ := s.do(http.MethodDelete, reviewPath, nil, alice)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, env := s.do(http.MethodGet, reviewPath, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Review not found", env.Error)

		rec, env = s.do(http.MethodGet, "/api/games/"+game.ID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[handler.GameEnvelope](t, env.Data).Game
		assert.Zero(t, got.AverageRating)
		assert.Zero(t, got.ReviewCount)
	})

	t.Run("owner deletes account", func(t *testing.T) {
		rec, _ := s.do(http.MethodDelete, "/api/users/"+bobID, nil, bob)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, tokenCookie(t, rec).Value)

		rec, _ = s.do(http.MethodGet, "/api/users/"+bobID, nil, alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMalformedIDs(t *testing.T) {
	s := newTestServer(t, 100)
	valid := models.NewID()

	routes := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/games/123"},
		{http.MethodGet, "/api/games/123/reviews"},
		{http.MethodGet, "/api/reviews/not-an-id"},
		{http.MethodPatch, "/api/reviews/not-an-id"},
		{http.MethodDelete, "/api/reviews/not-an-id"},
		{http.MethodGet, "/api/users/zzzzzzzzzzzzzzzzzzzzzzzz"},
		{http.MethodPatch, "/api/users/abc"},
		{http.MethodDelete, "/api/users/abc"},
		{http.MethodGet, "/api/users/abc/reviews"},
		{http.MethodGet, "/api/users/abc/games"},
		{http.MethodPost, "/api/users/abc/games"},
		{http.MethodGet, "/api/users/" + valid + "/games/abc"},
		{http.MethodPatch, "/api/users/abc/games/" + valid},
		{http.MethodDelete, "/api/users/" + valid + "/games/abc"},
		{http.MethodGet, "/api/reviews?game=abc"},
		{http.MethodGet, "/api/reviews?user=abc"},
		{http.MethodGet, "/api/games/" + strings.ToUpper(valid)},
		{http.MethodGet, "/api/reviews?game=" + strings.ToUpper(valid)},
	}

	for _, r := range routes {
		rec, env := s.do(r.method, r.path, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", r.method, r.path)
		assert.Equal(t, "Invalid ID", env.Error, "%s %s", r.method, r.path)
	}
}

func TestGameListing(t *testing.T) {
	s := newTestServer(t, 100)
	for i := 1; i <= 12; i++ {
		s.game(fmt.Sprintf("Game %02d", i))
	}

	rec, env := s.do(http.MethodGet, "/api/games?page=2&limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	p := decode[page[handler.GameResponse]](t, env.Data)
	require.Len(t, p.Items, 5)
	assert.Equal(t, "Game 06", p.Items[0].Title)
	assert.Equal(t, "Game 10", p.Items[4].Title)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, int64(12), p.Total)
	assert.Equal(t, int64(3), p.TotalPages)

	rec, env = s.do(http.MethodGet, "/api/games?page=abc&limit=-4&sortOrder=DESC", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[page[handler.GameResponse]](t, env.Data)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, "Game 12", p.Items[0].Title)

	rec, env = s.do(http.MethodGet, "/api/games?search=game%2011", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[page[handler.GameResponse]](t, env.Data)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "Game 11", p.Items[0].Title)

	rec, _ = s.do(http.MethodGet, "/api/games?sortField=password", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/games?minRating=8&maxRating=2", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/games/"+models.NewID(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Game not found", env.Error)
}

func TestTrackedGames(t *testing.T) {
	s := newTestServer(t, 100)
	game := s.game("Outer Wilds")
	other := s.game("Hades")
	aliceID, alice := s.register("alice@example.com", "alice", "secret1")
	_, bob := s.register("bob@example.com", "bob", "secret1")

	collection := "/api/users/" + aliceID + "/games"
	entry := collection + "/" + game.ID

	rec, env := s.do(http.MethodPost, collection, gin.H{"game": game.ID}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)
	assert.Equal(t, "Game successfully added to user profile", env.Message)
	tracked := decode[handler.TrackedGameEnvelope](t, env.Data).Game
	assert.Equal(t, models.StatusUnowned, tracked.Status)
	assert.Equal(t, aliceID, tracked.User)
	require.NotNil(t, tracked.Game)
	assert.Equal(t, "Outer Wilds", tracked.Game.Title)

	rec, env = s.do(http.MethodPost, collection, gin.H{"game": game.ID, "status": "Owned"}, alice)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Game already added to user profile", env.Error)

	rec, _ = s.do(http.MethodPost, collection, gin.H{"game": other.ID, "status": "Owned"}, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(http.MethodPost, "/api/users/"+models.NewID()+"/games", gin.H{"game": other.ID}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", env.Error)

	rec, env = s.do(http.MethodPost, collection, gin.H{"game": models.NewID()}, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Game not found", env.Error)

	rec, _ = s.do(http.MethodPost, collection, gin.H{"game": other.ID, "status": "Stolen"}, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPost, collection, gin.H{"game": other.ID, "status": "Wishlisted", "notes": "On sale soon"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("list and filter", func(t *testing.T) {
		rec, env := s.do(http.MethodGet, collection, nil, bob)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decode[page[handler.TrackedGameResponse]](t, env.Data)
		assert.Equal(t, int64(2), p.Total)

		rec, env = s.do(http.MethodGet, collection+"?status=Wishlisted", nil, alice)
		require.Equal(t, http.StatusOK, rec.Code)
		p = decode[page[handler.TrackedGameResponse]](t, env.Data)
		require.Len(t, p.Items, 1)
		assert.Equal(t, "Hades", p.Items[0].Game.Title)
		assert.Equal(t, "On sale soon", p.Items[0].Notes)

		rec, _ = s.do(http.MethodGet, collection+"?status=Lost", nil, alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec, _ := s.do(http.MethodPatch, entry, gin.H{"status": "Owned"}, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, env := s.do(http.MethodPatch, entry, gin.H{"status": "Owned"}, alice)
		require.Equal(t, http.StatusOK, rec.Code, env.Error)
		assert.Equal(t, models.StatusOwned, decode[handler.TrackedGameEnvelope](t, env.Data).Game.Status)

		rec, env = s.do(http.MethodGet, "/api/games/"+game.ID, nil, alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.StatusOwned, decode[handler.GameEnvelope](t, env.Data).Game.TrackedStatus)

		rec, env = s.do(http.MethodGet, "/api/games/"+game.ID, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[handler.GameEnvelope](t, env.Data).Game.TrackedStatus)
	})

	t.Run("remove", func(t *testing.T) {
		rec, _ := s.do(http.MethodDelete, entry, nil, bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, env := s.do(http.MethodDelete, entry, nil, alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Game deleted from user profile successfully", env.Message)

		rec, env = s.do(http.MethodGet, entry, nil, alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Game not found in user profile", env.Error)

		rec, _ = s.do(http.MethodDelete, entry, nil, alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

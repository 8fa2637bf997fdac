package igdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIGDB struct {
	*httptest.Server
	tokenCalls atomic.Int32
	lastBody   atomic.Value
	rejectOnce atomic.Bool
}

func newFakeIGDB(t *testing.T) *fakeIGDB {
	t.Helper()
	f := &fakeIGDB{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("client_secret") != "secret" || r.URL.Query().Get("grant_type") != "client_credentials" {
			http.Error(w, `{"message":"invalid client secret"}`, http.StatusBadRequest)
			return
		}
		n := f.tokenCalls.Add(1)
		_ = json.NewEncoder(w).Encode(Token{AccessToken: "fetched-" + string(rune('0'+n)), ExpiresIn: 3600, TokenType: "bearer"})
	})
	mux.HandleFunc("POST /v4/games", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.lastBody.Store(string(body))
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": " Hades ", "summary": "Roguelike", "genres": [{"id": 9, "name": "Indie"}],
			 "platforms": [{"id": 6, "name": "PC"}], "first_release_date": 1600300800,
			 "cover": {"id": 3, "url": "//images.igdb.com/igdb/image/upload/t_thumb/co1.jpg"}},
			{"id": 2, "name": "Bare"}
		]`))
	})
	mux.HandleFunc("POST /v4/games/count", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		_, _ = w.Write([]byte(`{"count": 1234}`))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeIGDB) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Client-ID") != "client" || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return false
	}
	if f.rejectOnce.CompareAndSwap(true, false) {
		http.Error(w, "token expired", http.StatusUnauthorized)
		return false
	}
	return true
}

func (f *fakeIGDB) config() Config {
	return Config{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      f.URL + "/v4",
		TokenURL:     f.URL + "/oauth2/token",
		HTTPClient:   f.Client(),
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{ClientID: "client"})
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = New(Config{AccessToken: "token"})
	assert.ErrorIs(t, err, ErrNoCredentials)

	c, err := New(Config{ClientID: "client", AccessToken: "token"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, DefaultTokenURL, c.cfg.TokenURL)
}

func TestGames(t *testing.T) {
	f := newFakeIGDB(t)
	c, err := New(f.config())
	require.NoError(t, err)

	games, err := c.Games(context.Background(), 50, 100)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, " Hades ", games[0].Name)
	assert.Equal(t, []Named{{Name: "Indie"}}, games[0].Genres)
	assert.Equal(t, int64(1600300800), games[0].FirstReleaseDate)
	require.NotNil(t, games[0].Cover)
	assert.Nil(t, games[1].Cover)

	body := f.lastBody.Load().(string)
	assert.Contains(t, body, "fields "+gameFields+";")
	assert.Contains(t, body, "where first_release_date != null;")
	assert.Contains(t, body, "sort first_release_date desc;")
	assert.Contains(t, body, "limit 50;")
	assert.Contains(t, body, "offset 100;")

	_, err = c.Games(context.Background(), 10_000, 0)
	require.NoError(t, err)
	assert.Contains(t, f.lastBody.Load().(string), "limit 500;")

	assert.Equal(t, int32(1), f.tokenCalls.Load(), "token is cached between calls")
}

func TestCount(t *testing.T) {
	f := newFakeIGDB(t)
	c, err := New(f.config())
	require.NoError(t, err)

	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
}

func TestStaticToken(t *testing.T) {
	f := newFakeIGDB(t)
	cfg := f.config()
	cfg.ClientSecret = ""
	cfg.AccessToken = "static"

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Games(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, f.tokenCalls.Load())

	_, err = c.FetchToken(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestTokenRefresh(t *testing.T) {
	f := newFakeIGDB(t)
	c, err := New(f.config())
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	_, err = c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	t.Run("expiry", func(t *testing.T) {
		now = now.Add(time.Hour)
		_, err := c.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), f.tokenCalls.Load())
	})

	t.Run("rejected token is dropped", func(t *testing.T) {
		f.rejectOnce.Store(true)
		_, err := c.Count(context.Background())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

		_, err = c.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(3), f.tokenCalls.Load())
	})
}

func TestFetchToken_Error(t *testing.T) {
	f := newFakeIGDB(t)
	cfg := f.config()
	cfg.ClientSecret = "wrong"

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.FetchToken(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid client secret")
}

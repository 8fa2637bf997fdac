package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub/backend/internal/database"
	"gamehub/backend/internal/igdb"
	"gamehub/backend/internal/logger"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
	"gamehub/backend/internal/store/sqlstore"
)

type fakeSource struct {
	mu      sync.Mutex
	total   int
	prefix  string
	failAt  map[int]bool
	offsets []int
}

func (f *fakeSource) Games(_ context.Context, limit, offset int) ([]igdb.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.offsets = append(f.offsets, offset)
	if f.failAt[offset] {
		return nil, errors.New("igdb unavailable")
	}

	var out []igdb.Game
	for i := offset; i < offset+limit && i < f.total; i++ {
		out = append(out, igdb.Game{
			ID:               int64(i),
			Name:             fmt.Sprintf("%sGame %03d", f.prefix, i),
			FirstReleaseDate: 1600000000 - int64(i)*86400,
		})
	}
	return out, nil
}

func (f *fakeSource) Count(context.Context) (int64, error) {
	return int64(f.total), nil
}

func (f *fakeSource) seenOffsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]int(nil), f.offsets...)
	sort.Ints(out)
	return out
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := database.Connect(sqlite.Open(filepath.Join(t.TempDir(), "seed.db")), logger.Discard())
	require.NoError(t, err)
	s := sqlstore.New(db)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func countGames(t *testing.T, st store.Store) int64 {
	t.Helper()
	_, total, err := st.ListGames(context.Background(), query.Default(query.Games))
	require.NoError(t, err)
	return total
}

func TestFormatGame(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		game, ok := FormatGame(igdb.Game{
			Name:             "  Hades ",
			Summary:          " Roguelike ",
			Genres:           []igdb.Named{{Name: "Indie"}, {Name: " "}, {Name: "Rogue-lite"}},
			Platforms:        []igdb.Named{{Name: "PC"}},
			FirstReleaseDate: 1600300800,
			Cover:            &igdb.Image{URL: "//images.igdb.com/igdb/image/upload/t_thumb/co1.jpg"},
		})
		require.True(t, ok)
		assert.Equal(t, "Hades", game.Title)
		assert.Equal(t, "hades", game.Slug)
		assert.Equal(t, "Roguelike", game.Summary)
		assert.Equal(t, []string{"Indie", "Rogue-lite"}, game.Genres)
		assert.Equal(t, []string{"PC"}, game.Platforms)
		assert.Equal(t, "https://images.igdb.com/igdb/image/upload/t_cover_big/co1.jpg", game.ThumbnailURL)
		assert.Equal(t, time.Date(2020, 9, 17, 0, 0, 0, 0, time.UTC), game.ReleaseDate)
	})

	t.Run("defaults", func(t *testing.T) {
		game, ok := FormatGame(igdb.Game{Name: "Bare"})
		require.True(t, ok)
		assert.Equal(t, "No summary available.", game.Summary)
		assert.Equal(t, []string{"Unknown"}, game.Genres)
		assert.Equal(t, []string{"Unknown"}, game.Platforms)
		assert.Empty(t, game.ThumbnailURL)
		assert.True(t, game.ReleaseDate.IsZero())
	})

	t.Run("absolute cover kept", func(t *testing.T) {
		game, ok := FormatGame(igdb.Game{Name: "X", Cover: &igdb.Image{URL: "https://cdn/t_thumb/a.jpg"}})
		require.True(t, ok)
		assert.Equal(t, "https://cdn/t_cover_big/a.jpg", game.ThumbnailURL)
	})

	t.Run("untitled rejected", func(t *testing.T) {
		for _, name := range []string{"", "   "} {
			_, ok := FormatGame(igdb.Game{Name: name})
			assert.False(t, ok, "%q", name)
		}
	})

	t.Run("symbol-only title keyed by igdb id", func(t *testing.T) {
		game, ok := FormatGame(igdb.Game{ID: 7346, Name: "!!!"})
		require.True(t, ok)
		assert.Equal(t, "!!!", game.Title)
		assert.Equal(t, "igdb-7346", game.Slug)
	})
}

func TestRun_ImportsAndRemovesProgress(t *testing.T) {
	st := newTestStore(t)
	progressFile := filepath.Join(t.TempDir(), "progress.json")
	src := &fakeSource{total: 23}

	s := New(src, st, logger.Discard(), Options{BatchSize: 5, Concurrency: 2, ProgressFile: progressFile, Pause: -1})
	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Stats{Batches: 5, Created: 23}, stats)
	assert.Equal(t, []int{0, 5, 10, 15, 20}, src.seenOffsets())
	assert.Equal(t, int64(23), countGames(t, st))
	assert.NoFileExists(t, progressFile)

	t.Run("second run updates by slug", func(t *testing.T) {
		again := New(&fakeSource{total: 23}, st, logger.Discard(), Options{BatchSize: 10})
		stats, err := again.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Stats{Batches: 3, Updated: 23}, stats)
		assert.Equal(t, int64(23), countGames(t, st))
	})
}

func TestRun_ResumesFromProgress(t *testing.T) {
	st := newTestStore(t)
	progressFile := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(progressFile, []byte(`{"lastBatch":3}`), 0o644))

	src := &fakeSource{total: 25}
	s := New(src, st, logger.Discard(), Options{BatchSize: 5, ProgressFile: progressFile})
	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, []int{15, 20}, src.seenOffsets())
	assert.Equal(t, int64(10), countGames(t, st))
}

func TestRun_FailedWindowKeepsProgress(t *testing.T) {
	st := newTestStore(t)
	progressFile := filepath.Join(t.TempDir(), "progress.json")

	src := &fakeSource{total: 40, failAt: map[int]bool{25: true}}
	s := New(src, st, logger.Discard(), Options{BatchSize: 5, Concurrency: 2, ProgressFile: progressFile, Total: 40})
	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 6")

	data, err := os.ReadFile(progressFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lastBatch":4}`, string(data))

	t.Run("resume after fix", func(t *testing.T) {
		src.failAt = nil
		stats, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Batches)
		assert.Equal(t, int64(40), countGames(t, st))
		assert.NoFileExists(t, progressFile)
	})
}

func TestRun_TotalCapsImport(t *testing.T) {
	st := newTestStore(t)
	src := &fakeSource{total: 100}

	stats, err := New(src, st, logger.Discard(), Options{BatchSize: 10, Total: 20}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Batches)
	assert.Equal(t, int64(20), countGames(t, st))
}

func TestRefresh(t *testing.T) {
	st := newTestStore(t)
	progressFile := filepath.Join(t.TempDir(), "progress.json")
	src := &fakeSource{total: 100}

	s := New(src, st, logger.Discard(), Options{BatchSize: 10, ProgressFile: progressFile})
	stats, err := s.Refresh(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, Stats{Batches: 2, Created: 20}, stats)
	assert.Equal(t, []int{0, 10}, src.seenOffsets())
	assert.NoFileExists(t, progressFile)

	stats, err = s.Refresh(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestResetProgress(t *testing.T) {
	progressFile := filepath.Join(t.TempDir(), "progress.json")
	s := New(&fakeSource{}, nil, logger.Discard(), Options{ProgressFile: progressFile})

	require.NoError(t, s.ResetProgress())
	require.NoError(t, os.WriteFile(progressFile, []byte(`{"lastBatch":9}`), 0o644))
	require.NoError(t, s.ResetProgress())
	assert.NoFileExists(t, progressFile)
}

func TestScheduler(t *testing.T) {
	_, err := NewScheduler(nil, 0, 1, logger.Discard())
	require.Error(t, err)

	st := newTestStore(t)
	src := &fakeSource{total: 30}
	seeder := New(src, st, logger.Discard(), Options{BatchSize: 10})

	sched, err := NewScheduler(seeder, 20*time.Millisecond, 1, logger.Discard())
	require.NoError(t, err)
	sched.Start()

	assert.Eventually(t, func() bool {
		return len(src.seenOffsets()) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, sched.Shutdown())

	for _, offset := range src.seenOffsets() {
		assert.Zero(t, offset, "refresh only pulls the newest batch")
	}
	assert.Equal(t, int64(10), countGames(t, st))
}

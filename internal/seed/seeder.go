// Package seed imports the game catalog from IGDB into the store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gamehub/backend/internal/igdb"
	"gamehub/backend/internal/store"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 5
	DefaultPause       = 500 * time.Millisecond
)

// Source is the part of the IGDB client the importer uses.
type Source interface {
	Games(ctx context.Context, limit, offset int) ([]igdb.Game, error)
	Count(ctx context.Context) (int64, error)
}

// Options tunes an import run.
type Options struct {
	BatchSize   int
	Concurrency int
	// Total caps the number of games; zero asks the source.
	Total int64
	// ProgressFile records the next batch to import. Empty disables resuming.
	ProgressFile string
	// Pause between windows of concurrent batches.
	Pause time.Duration
}

// Stats summarizes an import.
type Stats struct {
	Batches int
	Created int
	Updated int
	Skipped int
}

type counters struct {
	batches, created, updated, skipped atomic.Int64
}

func (c *counters) stats() Stats {
	return Stats{
		Batches: int(c.batches.Load()),
		Created: int(c.created.Load()),
		Updated: int(c.updated.Load()),
		Skipped: int(c.skipped.Load()),
	}
}

type progress struct {
	LastBatch int `json:"lastBatch"`
}

// Seeder pulls pages of games from a Source and upserts them by slug.
type Seeder struct {
	source Source
	store  store.Store
	log    *slog.Logger
	opts   Options
}

// New creates a Seeder. Zero options take the package defaults.
func New(src Source, st store.Store, log *slog.Logger, opts Options) *Seeder {
	if opts.BatchSize <= 0 || opts.BatchSize > igdb.MaxLimit {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Pause < 0 {
		opts.Pause = 0
	}
	return &Seeder{source: src, store: st, log: log, opts: opts}
}

// Run imports every batch, starting after the last recorded window. The
// progress file is removed once the whole catalog has been imported.
func (s *Seeder) Run(ctx context.Context) (Stats, error) {
	total := s.opts.Total
	if total <= 0 {
		n, err := s.source.Count(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("count games: %w", err)
		}
		total = n
	}

	size := int64(s.opts.BatchSize)
	numBatches := int((total + size - 1) / size)

	start, err := s.loadProgress()
	if err != nil {
		return Stats{}, err
	}
	s.log.Info("catalog import starting",
		"total", total,
		"batches", numBatches,
		"from_batch", start+1,
		"concurrency", s.opts.Concurrency,
	)

	stats, err := s.importRange(ctx, start, numBatches, true)
	if err != nil {
		return stats, err
	}

	if err := s.ResetProgress(); err != nil {
		return stats, err
	}
	s.log.Info("catalog import finished",
		"batches", stats.Batches,
		"created", stats.Created,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// Refresh re-imports the first batches (the newest releases) and leaves the
// progress file alone.
func (s *Seeder) Refresh(ctx context.Context, batches int) (Stats, error) {
	if batches <= 0 {
		return Stats{}, nil
	}
	return s.importRange(ctx, 0, batches, false)
}

// ResetProgress deletes the progress file so the next Run starts from the first batch.
func (s *Seeder) ResetProgress() error {
	if s.opts.ProgressFile == "" {
		return nil
	}
	if err := os.Remove(s.opts.ProgressFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove progress file: %w", err)
	}
	return nil
}

// importRange processes batches [start, end) in windows of Concurrency
// batches. A failed batch aborts its window and the run.
func (s *Seeder) importRange(ctx context.Context, start, end int, track bool) (Stats, error) {
	var c counters

	for i := start; i < end; i += s.opts.Concurrency {
		windowEnd := min(i+s.opts.Concurrency, end)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Concurrency)
		for batch := i; batch < windowEnd; batch++ {
			g.Go(func() error {
				return s.importBatch(gctx, batch, end, &c)
			})
		}
		if err := g.Wait(); err != nil {
			return c.stats(), err
		}

		if track {
			if err := s.saveProgress(windowEnd); err != nil {
				return c.stats(), err
			}
		}

		if windowEnd < end && s.opts.Pause > 0 {
			select {
			case <-ctx.Done():
				return c.stats(), ctx.Err()
			case <-time.After(s.opts.Pause):
			}
		}
	}

	return c.stats(), nil
}

func (s *Seeder) importBatch(ctx context.Context, batch, of int, c *counters) error {
	games, err := s.source.Games(ctx, s.opts.BatchSize, batch*s.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("batch %d: %w", batch+1, err)
	}

	for _, g := range games {
		game, ok := FormatGame(g)
		if !ok {
			c.skipped.Add(1)
			continue
		}

		created, err := s.store.UpsertGame(ctx, game)
		if err != nil {
			return fmt.Errorf("batch %d: upsert %q: %w", batch+1, game.Title, err)
		}
		if created {
			c.created.Add(1)
		} else {
			c.updated.Add(1)
		}
	}

	c.batches.Add(1)
	s.log.Info("batch processed", "batch", batch+1, "of", of, "games", len(games))
	return nil
}

func (s *Seeder) loadProgress() (int, error) {
	if s.opts.ProgressFile == "" {
		return 0, nil
	}

	data, err := os.ReadFile(s.opts.ProgressFile)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read progress file: %w", err)
	}

	var p progress
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("decode progress file: %w", err)
	}
	return max(p.LastBatch, 0), nil
}

func (s *Seeder) saveProgress(next int) error {
	if s.opts.ProgressFile == "" {
		return nil
	}
	data, err := json.Marshal(progress{LastBatch: next})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.opts.ProgressFile, data, 0o644); err != nil {
		return fmt.Errorf("write progress file: %w", err)
	}
	return nil
}

// Command seed imports the game catalog from IGDB into the configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"

	"gamehub/backend/internal/config"
	"gamehub/backend/internal/di/providers"
	"gamehub/backend/internal/igdb"
	"gamehub/backend/internal/seed"
)

type options struct {
	envDir       string
	batchSize    int
	concurrency  int
	total        int64
	progressFile string
	pause        time.Duration
	reset        bool
	printToken   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.envDir, "env-dir", ".", "directory containing the .env file")
	flag.IntVarP(&opts.batchSize, "batch-size", "b", seed.DefaultBatchSize, "games per IGDB request (max 500)")
	flag.IntVarP(&opts.concurrency, "concurrency", "c", seed.DefaultConcurrency, "batches fetched concurrently")
	flag.Int64VarP(&opts.total, "total", "n", 0, "number of games to import (0 asks IGDB for the count)")
	flag.StringVar(&opts.progressFile, "progress-file", "./seedProgress.json", "file recording the next batch to import")
	flag.DurationVar(&opts.pause, "pause", seed.DefaultPause, "delay between windows of concurrent batches")
	flag.BoolVar(&opts.reset, "reset", false, "ignore saved progress and start from the first batch")
	flag.BoolVar(&opts.printToken, "print-token", false, "fetch a Twitch app token, print it and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.LoadConfig(opts.envDir)
	if err != nil {
		return err
	}

	if opts.printToken {
		return printToken(ctx, cfg)
	}

	if !cfg.IGDBEnabled() {
		return errors.New("IGDB_CLIENT_ID and IGDB_ACCESS_TOKEN or IGDB_CLIENT_SECRET are required")
	}

	injector := do.New()
	defer func() { _ = injector.Shutdown() }()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideIGDBClient)

	log, err := do.Invoke[*slog.Logger](injector)
	if err != nil {
		return err
	}
	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		return err
	}
	client, err := do.Invoke[*igdb.Client](injector)
	if err != nil {
		return err
	}

	seeder := seed.New(client, storeHandle.Store, log, seed.Options{
		BatchSize:    opts.batchSize,
		Concurrency:  opts.concurrency,
		Total:        opts.total,
		ProgressFile: opts.progressFile,
		Pause:        opts.pause,
	})

	if opts.reset {
		if err := seeder.ResetProgress(); err != nil {
			return err
		}
	}

	stats, err := seeder.Run(ctx)
	if err != nil {
		log.Error("Catalog import stopped; rerun to resume",
			"error", err,
			"progress_file", opts.progressFile,
			"batches", stats.Batches,
		)
		return err
	}

	fmt.Printf("Imported %d batches: %d created, %d updated, %d skipped\n",
		stats.Batches, stats.Created, stats.Updated, stats.Skipped)
	return nil
}

func printToken(ctx context.Context, cfg *config.Config) error {
	client, err := igdb.New(igdb.Config{
		ClientID:     cfg.IGDBClientID,
		ClientSecret: cfg.IGDBClientSecret,
	})
	if err != nil {
		return err
	}

	token, err := client.FetchToken(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Access Token:", token.AccessToken)
	fmt.Println("Expires in (seconds):", token.ExpiresIn)
	return nil
}

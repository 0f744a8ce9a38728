package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lhgjose/propfair/internal/config"
	"github.com/lhgjose/propfair/internal/db"
	"github.com/lhgjose/propfair/internal/db/migrations"
	"github.com/lhgjose/propfair/internal/dbpool"
	"github.com/lhgjose/propfair/internal/ops"
	"github.com/lhgjose/propfair/internal/pipeline"
	"github.com/lhgjose/propfair/internal/source"
	"github.com/lhgjose/propfair/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		inputPath string
		opsAddr   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest scraped records from an NDJSON feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(flagConfig)
			if err != nil {
				return err
			}

			if opsAddr != "" {
				cfg.OpsAddr = opsAddr
			}

			return runIngestion(cfg, inputPath)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "NDJSON records file, - for stdin")
	cmd.Flags().StringVar(&opsAddr, "ops-addr", "", "serve /healthz and /metrics on this address during the run")

	return cmd
}

func runIngestion(cfg *config.Config, inputPath string) error {
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	in, closeIn, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer closeIn()

	listings := store.NewListingStore(store.Base{Pool: pool, Log: log})
	runner := pipeline.NewRunner(func(ctx context.Context) (pipeline.RecordTx, error) {
		return listings.BeginRecord(ctx)
	}, log)

	var summary *pipeline.Summary

	g, gctx := errgroup.WithContext(ctx)
	opsCtx, opsCancel := context.WithCancel(gctx)
	defer opsCancel()

	if cfg.OpsAddr != "" {
		srv := ops.New(pool, log, version)
		g.Go(func() error {
			return srv.Run(opsCtx, cfg.OpsAddr)
		})
	}

	g.Go(func() error {
		defer opsCancel()
		summary = runner.Run(gctx, source.NewReader(in))

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(summary)

	return nil
}

// connectWithRetry opens the pool, retrying with exponential backoff:
// scrapers often start alongside the database in the same compose stack.
func connectWithRetry(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*dbpool.Pool, error) {
	var pool *dbpool.Pool

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
		if err != nil {
			log.WithError(err).Warn("database not reachable, retrying")

			return retry.RetryableError(err)
		}

		pool = p

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return os.Stdin, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input file: %w", err)
	}

	return f, func() { _ = f.Close() }, nil
}

func printSummary(s *pipeline.Summary) {
	fmt.Printf("records: %d\ncreated: %d\nupdated: %d\nfailed:  %d\ndropped: %d\n",
		s.Total(), s.Created, s.Updated, s.Failed, s.DroppedTotal())

	reasons := make([]string, 0, len(s.Dropped))
	for reason := range s.Dropped {
		reasons = append(reasons, reason)
	}

	sort.Strings(reasons)

	for _, reason := range reasons {
		fmt.Printf("  %s: %d\n", reason, s.Dropped[reason])
	}
}

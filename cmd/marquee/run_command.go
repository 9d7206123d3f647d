package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/digest"
	"marquee/internal/directory"
	"marquee/internal/fetch"
	"marquee/internal/notion"
	"marquee/internal/ratelimit"
	"marquee/internal/runner"
	"marquee/internal/state"
	"marquee/internal/tmdb"
	"marquee/internal/watchlist"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one scrape, reconcile, and publish cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			lock := flock.New(filepath.Join(cfg.Paths.StateDir, "marquee.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another marquee run is already in progress")
			}
			defer lock.Unlock()

			store, err := ctx.openStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			opts, err := buildRunnerOptions(cfg, store, logger)
			if err != nil {
				return err
			}

			summary, err := runner.New(opts).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
			fmt.Fprintln(out, renderTable(
				[]string{"Persons", "Failed", "New", "Released", "Updated links", "Publish failures"},
				[][]string{{
					fmt.Sprint(summary.PersonsProcessed),
					fmt.Sprint(summary.PersonsFailed),
					fmt.Sprint(summary.NewlyAdded),
					fmt.Sprint(summary.NewlyReleased),
					fmt.Sprint(summary.AssociationUpdates),
					fmt.Sprint(summary.PublishFailures),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

// buildRunnerOptions wires the external adapters. Each remote source
// gets its own rate gate so a chatty catalog cannot starve the notes
// sink or vice versa.
func buildRunnerOptions(cfg *config.Config, store state.Store, logger *slog.Logger) (runner.Options, error) {
	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithHTTPClient(&http.Client{
			Timeout:   time.Duration(cfg.TMDB.RequestTimeout) * time.Second,
			Transport: ratelimit.NewTransport(nil, ratelimit.NewLimiter(cfg.TMDB.MaxRequestsPerSecond)),
		}))
	if err != nil {
		return runner.Options{}, fmt.Errorf("build tmdb client: %w", err)
	}

	fetcher := fetch.NewFetcher(tmdbClient, fetch.NewGenreCache(tmdbClient), logger)

	opts := runner.Options{
		Config:    cfg,
		Store:     store,
		Resolver:  directory.NewResolver(tmdbClient, store, logger),
		Source:    fetcher,
		Directors: watchlistSource(cfg.Watchlist.DirectorsURL, cfg.Watchlist.DirectorsFile, cfg, logger),
		Actors:    watchlistSource(cfg.Watchlist.ActorsURL, cfg.Watchlist.ActorsFile, cfg, logger),
		Logger:    logger,
	}

	if cfg.Email.Enabled {
		opts.Mailer = digest.NewMailer(cfg.Email, logger)
	}
	if cfg.Notion.Enabled {
		opts.Notes = notion.New(cfg.Notion, &http.Client{
			Timeout:   time.Duration(cfg.Notion.RequestTimeout) * time.Second,
			Transport: ratelimit.NewTransport(nil, ratelimit.NewLimiter(cfg.Notion.MaxRequestsPerSecond)),
		}, logger)
	}
	return opts, nil
}

// watchlistSource prefers the hosted note page and falls back to the
// local file. Returns nil when neither half is configured.
func watchlistSource(url, file string, cfg *config.Config, logger *slog.Logger) watchlist.Source {
	if url != "" {
		return watchlist.NewNoteSource(url, time.Duration(cfg.Watchlist.RequestTimeout)*time.Second, logger)
	}
	if file != "" {
		return watchlist.NewFileSource(file, logger)
	}
	return nil
}

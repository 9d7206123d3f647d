// Package runner drives one scrape/reconcile/publish cycle.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/digest"
	"marquee/internal/logging"
	"marquee/internal/reconcile"
	"marquee/internal/services"
	"marquee/internal/state"
	"marquee/internal/watchlist"
)

// PersonResolver turns a watch-list name into an enriched person.
type PersonResolver interface {
	Resolve(ctx context.Context, name string, isDirector, isActor bool) (catalog.Person, error)
}

// ProjectSource discovers candidates and answers graduation checks.
type ProjectSource interface {
	CandidateProjects(ctx context.Context, person catalog.Person) ([]catalog.FilmProject, error)
	ReleaseStatus(ctx context.Context, projectID string) (reconcile.ReleaseStatus, error)
}

// DigestSender delivers the formatted run digest.
type DigestSender interface {
	Send(ctx context.Context, subject, body string) error
}

// NotesPublisher mirrors the run delta into the notes databases.
type NotesPublisher interface {
	SweepExcluded(ctx context.Context) ([]string, error)
	Publish(ctx context.Context, result *reconcile.Result) (int, error)
}

// Summary is the run report logged and shown by the CLI.
type Summary struct {
	RunID              string
	PersonsProcessed   int
	PersonsFailed      int
	NewlyAdded         int
	NewlyReleased      int
	AssociationUpdates int
	PublishFailures    int
	Duration           time.Duration
}

// Options wires a Runner. Mailer and Notes are nil when the matching
// sink is disabled.
type Options struct {
	Config    *config.Config
	Store     state.Store
	Resolver  PersonResolver
	Source    ProjectSource
	Directors watchlist.Source
	Actors    watchlist.Source
	Mailer    DigestSender
	Notes     NotesPublisher
	Logger    *slog.Logger
	Now       func() time.Time
}

type Runner struct {
	opts   Options
	engine *reconcile.Engine
	logger *slog.Logger
	now    func() time.Time
}

func New(opts Options) *Runner {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		opts:   opts,
		engine: reconcile.NewEngine(opts.Logger),
		logger: logging.NewComponentLogger(opts.Logger, "runner"),
		now:    now,
	}
}

// Run executes one full cycle. Per-person and per-sink failures are
// isolated and counted; only state access aborts the run, because a
// failed commit would otherwise repeat or lose work silently.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	summary := &Summary{RunID: runID}

	logger.Info("run started")

	st, err := r.opts.Store.LoadState(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "runner", "load state", "", err)
	}

	excluded, err := r.excludedProjects(ctx, logger, summary)
	if err != nil {
		return nil, err
	}

	roles, order, err := r.watchlistRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh watch list: %w", err)
	}

	resolved := make([]catalog.Person, 0, len(order))
	for _, name := range order {
		role := roles[name]
		pctx := services.WithPerson(ctx, name)
		person, err := r.opts.Resolver.Resolve(pctx, name, role.director, role.actor)
		if err != nil {
			summary.PersonsFailed++
			logging.WithContext(pctx, r.logger).Error("person resolution failed",
				logging.Error(err))
			continue
		}
		st.Persons[person.Key] = person
		resolved = append(resolved, person)
	}

	if r.opts.Config.Watchlist.PruneRemoved {
		r.pruneRemovedPersons(logger, st, order)
	}

	result := &reconcile.Result{}
	result.NewlyReleased = r.engine.Graduate(ctx, st.Upcoming, st.Released, r.opts.Source, r.now())

	candidates := make(map[string][]catalog.FilmProject, len(resolved))
	for _, person := range resolved {
		pctx := services.WithPerson(ctx, person.Name)
		projects, err := r.opts.Source.CandidateProjects(pctx, person)
		if err != nil {
			summary.PersonsFailed++
			logging.WithContext(pctx, r.logger).Error("candidate fetch failed",
				logging.Error(err))
			continue
		}
		summary.PersonsProcessed++
		candidates[person.Key] = projects
	}

	merged := r.engine.Merge(st.Persons, st.Upcoming, st.Released, candidates, excluded)
	result.NewlyAdded = merged.NewlyAdded
	result.UpdatedAssociations = merged.UpdatedAssociations
	result.UpdatedPersons = merged.UpdatedPersons

	if err := r.opts.Store.SaveState(ctx, st); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "runner", "save state", "", err)
	}

	r.publish(ctx, logger, summary, result, st)

	summary.NewlyAdded = len(result.NewlyAdded)
	summary.NewlyReleased = len(result.NewlyReleased)
	summary.AssociationUpdates = len(result.UpdatedAssociations)
	summary.Duration = r.now().Sub(started)

	logger.Info("run finished",
		logging.Int("persons_processed", summary.PersonsProcessed),
		logging.Int("persons_failed", summary.PersonsFailed),
		logging.Int("newly_added", summary.NewlyAdded),
		logging.Int("newly_released", summary.NewlyReleased),
		logging.Int("association_updates", summary.AssociationUpdates),
		logging.Int("publish_failures", summary.PublishFailures),
		logging.Duration("duration", summary.Duration))
	return summary, nil
}

type roleFlags struct {
	director bool
	actor    bool
}

// watchlistRoles fetches both halves of the watch list and unions role
// flags for names present on both. Order follows first sighting so runs
// process people the way the lists are written.
func (r *Runner) watchlistRoles(ctx context.Context) (map[string]roleFlags, []string, error) {
	roles := make(map[string]roleFlags)
	var order []string

	record := func(names []string, director bool) {
		for _, name := range names {
			if catalog.NormalizeKey(name) == "" {
				continue
			}
			flags, seen := roles[name]
			if !seen {
				order = append(order, name)
			}
			if director {
				flags.director = true
			} else {
				flags.actor = true
			}
			roles[name] = flags
		}
	}

	if r.opts.Directors != nil {
		names, err := r.opts.Directors.Names(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("directors list: %w", err)
		}
		record(names, true)
	}
	if r.opts.Actors != nil {
		names, err := r.opts.Actors.Names(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("actors list: %w", err)
		}
		record(names, false)
	}
	return roles, order, nil
}

// pruneRemovedPersons drops stored persons no longer on the watch list.
// Off by default; the historical record is kept unless the user opts in.
// Project association lists keep the departed keys so released history
// stays intact.
func (r *Runner) pruneRemovedPersons(logger *slog.Logger, st *state.State, order []string) {
	keep := make(map[string]struct{}, len(order))
	for _, name := range order {
		keep[catalog.NormalizeKey(name)] = struct{}{}
	}
	for key := range st.Persons {
		if _, ok := keep[key]; ok {
			continue
		}
		delete(st.Persons, key)
		logger.Info("pruned person removed from watch list",
			logging.String(logging.FieldPerson, key))
	}
}

// excludedProjects unions the configured IDs, the exclusion file, and
// the IDs swept from the notes databases this run.
func (r *Runner) excludedProjects(ctx context.Context, logger *slog.Logger, summary *Summary) (map[string]struct{}, error) {
	excluded := make(map[string]struct{})
	for _, id := range r.opts.Config.Exclusions.ProjectIDs {
		excluded[id] = struct{}{}
	}

	if path := r.opts.Config.Exclusions.File; path != "" {
		ids, err := readExclusionFile(path)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			excluded[id] = struct{}{}
		}
	}

	if r.opts.Notes != nil {
		swept, err := r.opts.Notes.SweepExcluded(ctx)
		if err != nil {
			summary.PublishFailures++
			logger.Warn("excluded sweep failed", logging.Error(err))
		}
		for _, id := range swept {
			excluded[id] = struct{}{}
		}
	}
	return excluded, nil
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, summary *Summary, result *reconcile.Result, st *state.State) {
	if r.opts.Mailer != nil {
		body := digest.Format(result, st.Persons, st.Upcoming)
		subject := fmt.Sprintf("Upcoming projects update %s", r.now().Format("2006-01-02"))
		if err := r.opts.Mailer.Send(ctx, subject, body); err != nil {
			summary.PublishFailures++
			logger.Error("digest email failed", logging.Error(err))
		}
	}

	if r.opts.Notes != nil {
		failures, err := r.opts.Notes.Publish(ctx, result)
		summary.PublishFailures += failures
		if err != nil {
			summary.PublishFailures++
			logger.Error("notes publish failed", logging.Error(err))
		}
	}
}

func readExclusionFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPersistence, "runner", "open exclusions", path, err)
	}
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "runner", "read exclusions", path, err)
	}
	sort.Strings(ids)
	return ids, nil
}
